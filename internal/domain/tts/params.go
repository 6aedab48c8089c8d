package tts

import "fmt"

// ToAwsSSML 按需把文本包装为AWS SSML。当前支持 emotion 参数；
// 无需转换时原样返回输入文本。
func ToAwsSSML(text string, extra map[string]interface{}) string {
	if len(extra) == 0 {
		return text
	}

	if emotion, ok := extra["emotion"].(string); ok && emotion != "" {
		// 强度暂固定为 medium，后续可参数化
		return fmt.Sprintf(`<speak><amazon:emotion name=%q intensity="medium">%s</amazon:emotion></speak>`,
			emotion, text)
	}

	return text
}

// ToAliyunParams 提取并规整阿里云支持的扩展参数
func ToAliyunParams(extra map[string]interface{}) map[string]interface{} {
	params := make(map[string]interface{})
	if extra == nil {
		return params
	}

	if emotion, ok := extra["emotion"]; ok {
		params["emotion"] = emotion
	}

	return params
}
