package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Anastasiia-on/intention/internal/i18n"
	"github.com/Anastasiia-on/intention/internal/models"
	"github.com/Anastasiia-on/intention/internal/telegram"
)

// Callback data prefixes. Arguments are colon-separated integers.
const (
	cbLearnMore   = "learn_more"
	cbFreeTextYes = "free_text_yes"
	cbFreeTextNo  = "free_text_no"

	cbReflectYes = "REFLECT_YES" // REFLECT_YES:<intention_id>:<prompt_unix>
	cbReflectNo  = "REFLECT_NO"

	cbIntentSelect   = "intent_select"   // intent_select:<id>
	cbIntentAddDate  = "intent_add_date" // intent_add_date:<id>
	cbIntentEdit     = "intent_edit"     // intent_edit:<id>
	cbIntentDelete   = "intent_delete"   // intent_delete:<id>
	cbIntentCategory = "intent_cat"      // intent_cat:<id>, opens the category chooser
	cbIntentDone     = "intent_done"

	cbCategoryPick      = "cat_pick"       // cat_pick:<category_id>:<intention_id>
	cbCategoryNew       = "cat_new"        // cat_new:<intention_id>, 0 from manage-categories
	cbCategoryShow      = "cat_show"       // cat_show:<category_id>
	cbCategoryAddIntent = "cat_add_intent" // cat_add_intent:<category_id>

	cbFeedbackWrite = "feedback_write"
	cbFeedbackPhoto = "feedback_photo"
	cbFeedbackSkip  = "feedback_skip"

	cbBroadcastYes = "broadcast_yes"
	cbBroadcastNo  = "broadcast_no"
)

func cbData(prefix string, args ...int64) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, prefix)
	for _, a := range args {
		parts = append(parts, strconv.FormatInt(a, 10))
	}
	return strings.Join(parts, ":")
}

// parseCallback splits callback data into its prefix and integer arguments.
// Malformed arguments yield zero values rather than errors: a forged id
// behaves exactly like a missing row downstream.
func parseCallback(data string) (string, []int64) {
	parts := strings.Split(data, ":")
	args := make([]int64, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, _ := strconv.ParseInt(p, 10, 64)
		args = append(args, n)
	}
	return parts[0], args
}

func callbackArg(args []int64, i int) int64 {
	if i < len(args) {
		return args[i]
	}
	return 0
}

func languageKeyboard() *telegram.SendOptions {
	return &telegram.SendOptions{ReplyKeyboard: &telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: i18n.LanguageEnglishLabel}, {Text: i18n.LanguageUkrainianLabel}},
		},
		ResizeKeyboard: true,
	}}
}

func mainMenuKeyboard(msgs i18n.Messages, isAdmin bool) *telegram.SendOptions {
	rows := [][]telegram.KeyboardButton{
		{{Text: msgs.MenuAdd}, {Text: msgs.MenuShow}},
		{{Text: msgs.MenuReflections}, {Text: msgs.MenuCategories}},
		{{Text: i18n.LanguageEnglishLabel}, {Text: i18n.LanguageUkrainianLabel}},
	}
	if isAdmin {
		rows = append(rows, []telegram.KeyboardButton{{Text: msgs.MenuBroadcast}})
	}
	return &telegram.SendOptions{ReplyKeyboard: &telegram.ReplyKeyboardMarkup{
		Keyboard:       rows,
		ResizeKeyboard: true,
	}}
}

func learnMoreKeyboard(msgs i18n.Messages) *telegram.SendOptions {
	return &telegram.SendOptions{InlineKeyboard: &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: msgs.LearnMore, CallbackData: cbLearnMore}},
		},
	}}
}

func configKeyboard(msgs i18n.Messages, intentionID int64, hasDate bool) *telegram.SendOptions {
	dateLabel := msgs.AddDateAction
	if hasDate {
		dateLabel = msgs.EditDate
	}
	return &telegram.SendOptions{InlineKeyboard: &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: dateLabel, CallbackData: cbData(cbIntentAddDate, intentionID)}},
			{{Text: msgs.AddCategoryAction, CallbackData: cbData(cbIntentCategory, intentionID)}},
			{{Text: msgs.DoneAction, CallbackData: cbIntentDone}},
		},
	}}
}

func freeTextConfirmKeyboard(msgs i18n.Messages) *telegram.SendOptions {
	return &telegram.SendOptions{InlineKeyboard: &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: msgs.ConfirmYes, CallbackData: cbFreeTextYes},
				{Text: msgs.ConfirmNo, CallbackData: cbFreeTextNo},
			},
		},
	}}
}

// ReflectPromptKeyboard is attached to evening prompts by the scheduled
// jobs. The prompt's send time rides in the callback data so the stale
// window survives restarts.
func ReflectPromptKeyboard(msgs i18n.Messages, intentionID, promptUnix int64) *telegram.SendOptions {
	return reflectKeyboard(msgs, intentionID, promptUnix)
}

func reflectKeyboard(msgs i18n.Messages, intentionID, promptUnix int64) *telegram.SendOptions {
	return &telegram.SendOptions{InlineKeyboard: &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: msgs.ReflectionYes, CallbackData: cbData(cbReflectYes, intentionID, promptUnix)},
				{Text: msgs.SkipToday, CallbackData: cbReflectNo},
			},
		},
	}}
}

func reflectionCaptureKeyboard(msgs i18n.Messages) *telegram.SendOptions {
	return &telegram.SendOptions{ReplyKeyboard: &telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: msgs.ReflectionDone}, {Text: msgs.ReflectionCancel}},
		},
		ResizeKeyboard: true,
	}}
}

func feedbackChoiceKeyboard(msgs i18n.Messages) *telegram.SendOptions {
	return &telegram.SendOptions{InlineKeyboard: &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: msgs.WriteFeedback, CallbackData: cbFeedbackWrite}},
			{{Text: msgs.AddPhoto, CallbackData: cbFeedbackPhoto}},
			{{Text: msgs.SkipToday, CallbackData: cbFeedbackSkip}},
		},
	}}
}

func intentionListKeyboard(intentions []models.Intention) *telegram.SendOptions {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(intentions))
	for i, it := range intentions {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: fmt.Sprintf("%d", i+1), CallbackData: cbData(cbIntentSelect, it.ID)},
		})
	}
	return &telegram.SendOptions{InlineKeyboard: &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}}
}

func intentionDetailKeyboard(msgs i18n.Messages, it models.Intention) *telegram.SendOptions {
	dateLabel := msgs.AddDate
	if it.Date != "" {
		dateLabel = msgs.EditDate
	}
	return &telegram.SendOptions{InlineKeyboard: &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: dateLabel, CallbackData: cbData(cbIntentAddDate, it.ID)}},
			{
				{Text: msgs.EditIntention, CallbackData: cbData(cbIntentEdit, it.ID)},
				{Text: msgs.DeleteIntention, CallbackData: cbData(cbIntentDelete, it.ID)},
			},
		},
	}}
}

// categoryChooserKeyboard lists the user's categories for attachment to
// one intention, with a trailing new-category button.
func categoryChooserKeyboard(msgs i18n.Messages, categories []models.Category, intentionID int64) *telegram.SendOptions {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: c.Name, CallbackData: cbData(cbCategoryPick, c.ID, intentionID)},
		})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{
		{Text: msgs.AddNewCategory, CallbackData: cbData(cbCategoryNew, intentionID)},
	})
	return &telegram.SendOptions{InlineKeyboard: &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}}
}

func categoryListKeyboard(msgs i18n.Messages, categories []models.Category) *telegram.SendOptions {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: c.Name, CallbackData: cbData(cbCategoryShow, c.ID)},
		})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{
		{Text: msgs.AddNewCategory, CallbackData: cbData(cbCategoryNew, 0)},
	})
	return &telegram.SendOptions{InlineKeyboard: &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}}
}

func addIntentionOfferKeyboard(msgs i18n.Messages, categoryID int64) *telegram.SendOptions {
	return &telegram.SendOptions{InlineKeyboard: &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: msgs.ConfirmYes, CallbackData: cbData(cbCategoryAddIntent, categoryID)}},
		},
	}}
}

func broadcastConfirmKeyboard(msgs i18n.Messages) *telegram.SendOptions {
	return &telegram.SendOptions{InlineKeyboard: &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: msgs.ConfirmYes, CallbackData: cbBroadcastYes},
				{Text: msgs.ConfirmNo, CallbackData: cbBroadcastNo},
			},
		},
	}}
}
