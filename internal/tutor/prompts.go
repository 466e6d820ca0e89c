package tutor

import "fmt"

// Agent display names.
const (
	AnswererName = "问题回答者"
	CheckerName  = "检查者"
)

const answererSystemPrompt = `你是一位专业的神经网络和深度学习教师助手。你的任务是：
1. 准确、清晰地回答学生提出的问题
2. 提供详细的讲解和说明
3. 给出相关的例子帮助理解
4. 必要时进行追问以确认学生的理解程度

你的回答应该：
- 基于提供的教材知识
- 准确无误
- 清晰易懂
- 循序渐进
- 富有耐心

如果问题超出了你的知识范围，请诚实地说明。
`

const checkerSystemPrompt = `你是一位严谨的教学质量审核专家。你的任务是：
1. 审核问题回答者给出的答案是否准确
2. 检查答案中是否存在错误或不准确的地方
3. 评估答案的质量和完整性
4. 评估学生可能的理解水平
5. 提供改进建议和补充说明

你的审核应该：
- 专业严谨
- 指出具体的错误或问题
- 提供建设性的反馈
- 考虑学生的学习效果

请以客观、专业的态度进行审核。
`

const (
	answererKnowledgeHeader = "\n\n以下是你可以参考的教材知识：\n"
	checkerKnowledgeHeader  = "\n\n以下是参考教材知识，用于验证答案的准确性：\n"
)

const reviewTemplate = `请审核以下问答：

问题：%s

回答：%s

请从以下几个方面进行审核：
1. 答案的准确性（是否有错误）
2. 答案的完整性（是否遗漏重要内容）
3. 答案的清晰度（是否易于理解）
4. 给出审核结论：通过/需要改进/不通过
5. 如果需要改进，请具体说明如何改进

请给出你的审核结果：
`

func buildSystemPrompt(base, header, excerpt string) string {
	if excerpt == "" {
		return base
	}
	return base + header + excerpt + "\n"
}

func reviewPrompt(question, answer string) string {
	return fmt.Sprintf(reviewTemplate, question, answer)
}
