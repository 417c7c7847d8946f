package models

// Intent is the classification outcome assigned to one inbound message.
// Exactly one intent is selected per text message.
type Intent string

const (
	IntentFixedReply         Intent = "fixed_reply"
	IntentScheduleInquiry    Intent = "schedule_inquiry"
	IntentRsvpByImplicitDate Intent = "rsvp_implicit_date"
	IntentRsvpByExplicitDate Intent = "rsvp_explicit_date"
	IntentRsvpCancel         Intent = "rsvp_cancel"
	IntentFaqTrigger         Intent = "faq_trigger"
	IntentSingleWordFaq      Intent = "faq_single_word"
	IntentAlertEscalation    Intent = "alert_escalation"
	IntentSmalltalkQuestion  Intent = "smalltalk_question"
	IntentQuestionForFaq     Intent = "question_for_faq"
	IntentGeneralChat        Intent = "general_chat"
	IntentUnsupported        Intent = "unsupported_content"
)
