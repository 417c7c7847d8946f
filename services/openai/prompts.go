package openaisvc

import (
	"fmt"

	"tsunagu/config"
)

// SystemMessage is the shared persona used for history-grounded chat.
func SystemMessage() string {
	return fmt.Sprintf(
		"あなたは%s団体「%s」のスタッフとして地域活動を支援する相談窓口AIです。"+
			"敬意と共感を示し、平易で簡潔な日本語で回答してください。"+
			"情報は確認可能な根拠や手順をわかりやすく示し、憶測で断定せず必要に応じて1件のみ確認質問を行ってください。"+
			"利用者の主体性と安心を尊重する励ましの言葉を添え、緊急性や専門的支援が必要な際は人の担当窓口や安全な連絡方法を案内してください。",
		config.AppConfig.ActivityType, config.AppConfig.OrganizationName)
}

// buildFaqPrompt composes the grounding prompt from a matched Q/A pair.
func buildFaqPrompt(userQuestion, faqQuestion, faqAnswer string) string {
	return fmt.Sprintf(
		"あなたは親切な%s団体のスタッフです。以下の情報を参考にして、ユーザーからの質問に丁寧に回答してください。\n\n"+
			"--- 参考情報 ---\n質問: %s\n回答: %s\n\n"+
			"--- ユーザーからの質問 ---\n%s\n\n"+
			"回答は簡潔で分かりやすく、親しみやすい口調でお願いします。",
		config.AppConfig.ActivityType, faqQuestion, faqAnswer, userQuestion)
}

// WelcomeMessage is sent on follow events.
func WelcomeMessage() string {
	name := config.AppConfig.OrganizationName
	activity := config.AppConfig.ActivityType
	trigger := config.AppConfig.FaqTriggerPhrase
	return fmt.Sprintf(
		"友達追加ありがとうございます！\n\n"+
			"ここでは%sに関する質問に答えたり、活動の案内をしたりします。\n\n"+
			"質問があるときは、まず「%s%s」を付けて送ってください。\n"+
			"例）%s%s 集合場所はどこ？／%s%s 持ち物は？",
		activity, name, trigger, name, trigger, name, trigger)
}

// MonthlyScheduleHeader introduces the monthly broadcast carousel.
func MonthlyScheduleHeader(month int) string {
	return fmt.Sprintf("📅 %d月の%s予定です！\n\n各活動の参加・不参加を選択してください。",
		month, config.AppConfig.ActivityType)
}
