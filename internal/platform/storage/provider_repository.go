package storage

import (
	"strconv"

	"gorm.io/gorm"

	"audiopaas-server-go/internal/domain/tts"
	"audiopaas-server-go/internal/platform/errors"
)

// ProviderRepository 提供商配置仓库。写入时加密凭证，读出时解密。
// 实现路由核心的 tts.ConfigSource 端口。
type ProviderRepository struct {
	db    *gorm.DB
	codec *Codec
}

// FindActiveConfig 返回该类型最早创建的启用配置；没有返回 (nil, nil)。
func (r *ProviderRepository) FindActiveConfig(providerType tts.ProviderType) (*tts.ProviderConfig, error) {
	var record ProviderConfigRecord
	err := r.db.Where("type = ? AND is_active = ?", string(providerType), true).
		Order("id ASC").First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.provider", "active config query failed", err)
	}
	return r.toDomain(&record)
}

// List 返回全部配置记录（凭证已解密，对外展示前须脱敏）
func (r *ProviderRepository) List() ([]*tts.ProviderConfig, error) {
	var records []ProviderConfigRecord
	if err := r.db.Order("id ASC").Find(&records).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.provider", "list query failed", err)
	}

	configs := make([]*tts.ProviderConfig, 0, len(records))
	for i := range records {
		cfg, err := r.toDomain(&records[i])
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Get 按ID取单条配置；不存在返回 (nil, nil)
func (r *ProviderRepository) Get(id uint) (*tts.ProviderConfig, error) {
	var record ProviderConfigRecord
	err := r.db.First(&record, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.provider", "get query failed", err)
	}
	return r.toDomain(&record)
}

// Create 新建配置，凭证加密落库，返回生成的ID。
func (r *ProviderRepository) Create(cfg *tts.ProviderConfig) (uint, error) {
	record, err := r.toRecord(cfg)
	if err != nil {
		return 0, err
	}
	if err := r.db.Create(record).Error; err != nil {
		return 0, errors.Wrap(errors.KindStorage, "storage.provider", "create failed", err)
	}
	return record.ID, nil
}

// Update 整体更新配置。空凭证字段表示保留原值（管理界面不回传明文密钥）。
func (r *ProviderRepository) Update(id uint, cfg *tts.ProviderConfig) error {
	var existing ProviderConfigRecord
	if err := r.db.First(&existing, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.KindStorage, "storage.provider", "provider config not found")
		}
		return errors.Wrap(errors.KindStorage, "storage.provider", "update lookup failed", err)
	}

	record, err := r.toRecord(cfg)
	if err != nil {
		return err
	}
	if cfg.AccessKey == "" {
		record.AccessKey = existing.AccessKey
	}
	if cfg.SecretKey == "" {
		record.SecretKey = existing.SecretKey
	}
	record.ID = id
	record.CreatedAt = existing.CreatedAt

	if err := r.db.Save(record).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "storage.provider", "update failed", err)
	}
	return nil
}

// SetActive 启停配置
func (r *ProviderRepository) SetActive(id uint, active bool) error {
	result := r.db.Model(&ProviderConfigRecord{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return errors.Wrap(errors.KindStorage, "storage.provider", "set active failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.KindStorage, "storage.provider", "provider config not found")
	}
	return nil
}

// Delete 删除配置
func (r *ProviderRepository) Delete(id uint) error {
	result := r.db.Delete(&ProviderConfigRecord{}, id)
	if result.Error != nil {
		return errors.Wrap(errors.KindStorage, "storage.provider", "delete failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.KindStorage, "storage.provider", "provider config not found")
	}
	return nil
}

func (r *ProviderRepository) toDomain(record *ProviderConfigRecord) (*tts.ProviderConfig, error) {
	accessKey, err := r.codec.Decrypt(record.AccessKey)
	if err != nil {
		return nil, err
	}
	secretKey, err := r.codec.Decrypt(record.SecretKey)
	if err != nil {
		return nil, err
	}
	return &tts.ProviderConfig{
		ID:        strconv.FormatUint(uint64(record.ID), 10),
		Name:      record.Name,
		Type:      tts.ProviderType(record.Type),
		BaseURL:   record.BaseURL,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Metadata:  string(record.Metadata),
		IsActive:  record.IsActive,
	}, nil
}

func (r *ProviderRepository) toRecord(cfg *tts.ProviderConfig) (*ProviderConfigRecord, error) {
	accessKey, err := r.codec.Encrypt(cfg.AccessKey)
	if err != nil {
		return nil, err
	}
	secretKey, err := r.codec.Encrypt(cfg.SecretKey)
	if err != nil {
		return nil, err
	}
	record := &ProviderConfigRecord{
		Name:      cfg.Name,
		Type:      string(cfg.Type),
		BaseURL:   cfg.BaseURL,
		AccessKey: accessKey,
		SecretKey: secretKey,
		IsActive:  cfg.IsActive,
	}
	if cfg.Metadata != "" {
		record.Metadata = []byte(cfg.Metadata)
	}
	return record, nil
}
