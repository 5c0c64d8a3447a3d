package insight

import (
	"fmt"

	"github.com/redink/recommender/internal/database"
)

const extractionPrompt = `你是一位专业的内容策略专家，擅长从优质笔记中提炼可复用的创作元素。

## 用户搜索主题
%s

## 笔记基本信息
- 标题：%s
- 行业：%s
- 总互动量：%d

## AI 深度分析
%s

## 任务要求
请基于以上分析内容，提炼以下信息：

### 1. 推荐理由（recommend_reasons）
最多3条，每条不超过30字，说明为什么这个笔记值得学习。

### 2. 可学习元素（learnable_elements）
提炼4个维度的可复用元素，每个不超过15字：
- hook：开头用什么方式吸引注意（如数字悬念、痛点共鸣）
- structure：内容如何组织（如问题-解决方案、分步教程）
- tone：表达风格（如姐妹聊天式、专业干货型）
- cta：如何引导互动（如"评论区见"、"点赞收藏"）

## 输出格式
请严格按照以下 JSON 格式输出（不要添加任何其他文字）：

` + "```json" + `
{
  "recommend_reasons": ["理由1", "理由2", "理由3"],
  "learnable_elements": {
    "hook": "钩子类型",
    "structure": "结构框架",
    "tone": "语言风格",
    "cta": "互动设计"
  }
}
` + "```" + `

## 注意事项
1. 必须基于分析结果，不要编造
2. 每个元素都要具体，不要用"很好"、"不错"等空泛词汇`

// buildPrompt seeds the extraction prompt with the record's stored
// analysis text and metadata.
func buildPrompt(topic string, rec *database.Record) string {
	return fmt.Sprintf(extractionPrompt,
		topic, rec.Title, rec.Industry, rec.Metrics.TotalEngagement, rec.Content)
}
