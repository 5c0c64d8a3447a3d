package semantic

import (
	"fmt"
	"strings"

	"github.com/redink/recommender/internal/database"
)

const maxTitleRunes = 50

const scoringPrompt = `你是一位专业的小红书内容推荐专家，擅长判断笔记与用户搜索意图的语义相关性。

## 用户搜索主题
%s

## 候选笔记列表
%s

## 评分维度

### 1. 主题相关度（0-10分）【核心维度，严格评判】
**重要：必须检查笔记标题和内容是否包含搜索词或其相关词汇！**

- 10分：标题直接包含搜索词/关键词，内容主题与搜索词高度一致
- 8-9分：标题或内容包含相关词汇，主题完全匹配
- 5-7分：内容与搜索主题相关，但非直接相关（如：搜"冬季"出现"秋冬"、"冬天"）
- 2-4分：勉强有间接关联，但主要话题不相关（如：搜"冬季"出现"年底"、"保暖"）
- 0-1分：完全不包含搜索词或相关内容，风马牛不相及

**注意：如果笔记标题和内容完全不包含搜索词或其相关词汇，主题相关度不得超过3分！**

### 2. 目标用户匹配度（0-10分）
评估目标受众是否一致：性别、年龄层、消费能力、身份定位等。
例如："男士穿搭" vs "御姐风" = 0-2分；"职场小白" vs "资深高管" = 低分

### 3. 内容风格适配性（0-10分）
评估表达风格、调性是否适合作为创作参考。包括：语气风格、内容结构、视觉风格等。

### 4. 数据表现加分（0-5分）
高互动量笔记额外加分，作为参考价值的辅助判断。

## 输出要求

请严格按照以下 JSON 格式输出（不要添加任何其他文字）：

` + "```json" + `
{
  "scores": [
    {"record_id": "xxx", "主题相关度": 8, "目标用户匹配度": 2, "内容风格适配性": 7, "数据表现加分": 3},
    {"record_id": "yyy", "主题相关度": 6, "目标用户匹配度": 9, "内容风格适配性": 8, "数据表现加分": 4}
  ]
}
` + "```" + `

## 注意事项
1. 必须为每个候选笔记打分，不能遗漏
2. 分数要客观、准确，不要随意打高分
3. 考虑小红书平台的内容特点和用户需求`

// buildPrompt renders the batch scoring prompt. Each candidate gets a
// compact summary: truncated title, industry, engagement, and the
// insight fields when present.
func buildPrompt(topic string, recs []*database.Record) string {
	lines := make([]string, 0, len(recs))
	for i, rec := range recs {
		industry := rec.Industry
		if industry == "" {
			industry = "未知"
		}
		lines = append(lines, fmt.Sprintf(
			"%d. record_id: %s\n   标题: %s\n   行业: %s | 互动量: %d\n   推荐理由: %s\n   学习要点: %s",
			i+1, rec.RecordID, truncateTitle(rec.Title), industry,
			rec.Metrics.TotalEngagement, reasonsText(rec), elementsText(rec)))
	}
	return fmt.Sprintf(scoringPrompt, topic, strings.Join(lines, "\n\n"))
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return string(runes[:maxTitleRunes])
}

func reasonsText(rec *database.Record) string {
	reasons := rec.RecommendReasons
	if len(reasons) == 0 {
		return "无"
	}
	if len(reasons) > 2 {
		reasons = reasons[:2]
	}
	return strings.Join(reasons, "; ")
}

func elementsText(rec *database.Record) string {
	le := rec.LearnableElements
	if le == nil {
		return "无"
	}
	var parts []string
	for _, p := range []struct{ label, val string }{
		{"钩子", le.Hook},
		{"结构", le.Structure},
		{"风格", le.Tone},
		{"互动", le.CTA},
	} {
		if p.val != "" {
			parts = append(parts, p.label+":"+p.val)
		}
	}
	if len(parts) == 0 {
		return "无"
	}
	return strings.Join(parts, "; ")
}
