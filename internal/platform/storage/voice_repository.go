package storage

import (
	"gorm.io/gorm"

	"github.com/bytedance/sonic"

	"audiopaas-server-go/internal/domain/tts"
	"audiopaas-server-go/internal/platform/errors"
)

// VoiceRepository 音色映射仓库，实现路由核心的 tts.VoiceSource 端口。
type VoiceRepository struct {
	db *gorm.DB
}

// FindVoiceDefinition 按对外音色ID查映射；没有返回 (nil, nil)。
func (r *VoiceRepository) FindVoiceDefinition(voiceID string) (*tts.VoiceDefinition, error) {
	var record VoiceDefinitionRecord
	err := r.db.Where("voice_id = ?", voiceID).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.voice", "voice query failed", err)
	}
	return toVoiceDomain(&record), nil
}

// List 返回全部音色映射，音色目录接口使用
func (r *VoiceRepository) List() ([]*tts.VoiceDefinition, error) {
	var records []VoiceDefinitionRecord
	if err := r.db.Order("voice_id ASC").Find(&records).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.voice", "list query failed", err)
	}
	voices := make([]*tts.VoiceDefinition, 0, len(records))
	for i := range records {
		voices = append(voices, toVoiceDomain(&records[i]))
	}
	return voices, nil
}

// Upsert 按对外音色ID新建或覆盖映射
func (r *VoiceRepository) Upsert(def *tts.VoiceDefinition) error {
	record, err := toVoiceRecord(def)
	if err != nil {
		return err
	}

	var existing VoiceDefinitionRecord
	lookupErr := r.db.Where("voice_id = ?", def.ID).First(&existing).Error
	if lookupErr == nil {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		if err := r.db.Save(record).Error; err != nil {
			return errors.Wrap(errors.KindStorage, "storage.voice", "update failed", err)
		}
		return nil
	}
	if lookupErr != gorm.ErrRecordNotFound {
		return errors.Wrap(errors.KindStorage, "storage.voice", "upsert lookup failed", lookupErr)
	}
	if err := r.db.Create(record).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "storage.voice", "create failed", err)
	}
	return nil
}

// Delete 删除映射
func (r *VoiceRepository) Delete(voiceID string) error {
	result := r.db.Where("voice_id = ?", voiceID).Delete(&VoiceDefinitionRecord{})
	if result.Error != nil {
		return errors.Wrap(errors.KindStorage, "storage.voice", "delete failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.KindStorage, "storage.voice", "voice definition not found")
	}
	return nil
}

// SeedDefaults 空表时播种常用音色映射
func (r *VoiceRepository) SeedDefaults() error {
	var count int64
	if err := r.db.Model(&VoiceDefinitionRecord{}).Count(&count).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "storage.voice", "seed count failed", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []*tts.VoiceDefinition{
		{ID: "xiaoyun", Type: tts.ProviderAliyun, NativeVoiceID: "xiaoyun", DisplayName: "小云", Gender: tts.GenderFemale, Styles: []string{"general"}},
		{ID: "xiaogang", Type: tts.ProviderAliyun, NativeVoiceID: "xiaogang", DisplayName: "小刚", Gender: tts.GenderMale, Styles: []string{"general"}},
		{ID: "longxiaochun", Type: tts.ProviderAliyunCosyVoice, NativeVoiceID: "longxiaochun", DisplayName: "龙小淳", Gender: tts.GenderFemale, Styles: []string{"general", "chat"}},
		{ID: "longyue", Type: tts.ProviderAliyunCosyVoice, NativeVoiceID: "longyue", DisplayName: "龙悦", Gender: tts.GenderFemale, Styles: []string{"story"}},
		{ID: "joanna", Type: tts.ProviderAWS, NativeVoiceID: "Joanna", DisplayName: "Joanna", Gender: tts.GenderFemale, Styles: []string{"neural"}},
		{ID: "matthew", Type: tts.ProviderAWS, NativeVoiceID: "Matthew", DisplayName: "Matthew", Gender: tts.GenderMale, Styles: []string{"neural"}},
		{ID: "zhiyu", Type: tts.ProviderTencent, NativeVoiceID: "101001", DisplayName: "智瑜", Gender: tts.GenderFemale, Styles: []string{"general"}},
	}
	for _, def := range defaults {
		record, err := toVoiceRecord(def)
		if err != nil {
			return err
		}
		if err := r.db.Create(record).Error; err != nil {
			return errors.Wrap(errors.KindStorage, "storage.voice", "seed insert failed", err)
		}
	}
	return nil
}

func toVoiceDomain(record *VoiceDefinitionRecord) *tts.VoiceDefinition {
	def := &tts.VoiceDefinition{
		ID:            record.VoiceID,
		Type:          tts.ProviderType(record.Type),
		NativeVoiceID: record.NativeVoiceID,
		DisplayName:   record.DisplayName,
		Gender:        tts.VoiceGender(record.Gender),
	}
	if len(record.Styles) > 0 {
		// 坏的styles数据不应让整条映射不可用
		_ = sonic.Unmarshal(record.Styles, &def.Styles)
	}
	return def
}

func toVoiceRecord(def *tts.VoiceDefinition) (*VoiceDefinitionRecord, error) {
	record := &VoiceDefinitionRecord{
		VoiceID:       def.ID,
		Type:          string(def.Type),
		NativeVoiceID: def.NativeVoiceID,
		DisplayName:   def.DisplayName,
		Gender:        string(def.Gender),
	}
	if len(def.Styles) > 0 {
		raw, err := sonic.Marshal(def.Styles)
		if err != nil {
			return nil, errors.Wrap(errors.KindStorage, "storage.voice", "encode styles failed", err)
		}
		record.Styles = raw
	}
	return record, nil
}
