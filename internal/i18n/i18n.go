// Package i18n holds the translated message tables for the bot interface.
//
// Two languages are supported. The tables only affect what the user reads;
// they never influence parsing.
package i18n

import (
	"fmt"
	"strings"
	"time"

	"github.com/Anastasiia-on/intention/internal/models"
)

// Messages is the full set of user-facing strings for one language.
type Messages struct {
	Intro        string
	Privacy      string
	LearnMore    string
	OptionalInfo string

	MenuAdd         string
	MenuShow        string
	MenuReflections string
	MenuCategories  string
	MenuBroadcast   string
	MainMenuTitle   string

	AddPrompt           string
	ChooseDate          string
	InvalidDateFormat   string
	InvalidDateCalendar string
	InvalidDatePast     string

	CategoryPrompt             string
	NoCategories               string
	CategoriesHeader           string
	AddNewCategory             string
	CategoryEmpty              string
	AddIntentionAfterCategory  string
	ChooseCategory             string

	NoIntentions     string
	IntentionsHeader string
	EditIntention    string
	DeleteIntention  string
	AddDate          string
	EditDate         string
	IntentionUpdated string
	IntentionDeleted string

	AddDateAction     string
	AddCategoryAction string
	DoneAction        string
	ConfigPrompt      string
	SavedSummaryTitle string

	FreeTextPrompt string
	ConfirmYes     string
	ConfirmNo      string
	OtherAction    string

	ReflectionYes          string
	ReflectionInstructions string
	ReflectionDone         string
	ReflectionCancel       string
	ReflectionSaved        string
	ReflectionCancelAck    string
	ReflectionsHeader      string
	NoReflections          string

	FeedbackTextPrompt string
	PhotoPrompt        string
	WriteFeedback      string
	AddPhoto           string
	SkipToday          string
	FeedbackSaved      string
	PhotoSaved         string

	TomorrowReminder       string
	EveningPrompt          string
	WeeklySummaryTitle     string
	MonthlySummaryTitle    string
	MonthlyIntentionsLine  string
	MonthlyDatesLine       string
	MonthlyReflectionsLine string
	MonthlySummaryFooter   string

	BroadcastPrompt    string
	BroadcastConfirm   string
	BroadcastSent      string
	BroadcastCancelAck string

	DecryptPlaceholder string
}

// Fixed bilingual strings used before a language is known.
const (
	LanguageEnglishLabel   = "English"
	LanguageUkrainianLabel = "Українська"
	LanguageSelectionText  = "Do you want to change language / Бажаєш змінити мову?"
	WelcomeCaption         = "Welcome to intentions bot ✨"
)

var tables = map[models.Language]Messages{
	models.LanguageEN: {
		Intro: "A soft way to plan your month with intentions and gentle check-ins",
		Privacy: strings.Join([]string{
			"Your intentions and reflections are encrypted",
			"In the database they look like random symbols",
			"Only you can read them here in chat",
		}, "\n"),
		LearnMore:    "Learn more",
		OptionalInfo: "Intentions stay private and encrypted\nReminders come at the times you choose",

		MenuAdd:         "Add intention",
		MenuShow:        "My intentions",
		MenuReflections: "My reflections",
		MenuCategories:  "Categories",
		MenuBroadcast:   "Broadcast",
		MainMenuTitle:   "Menu",

		AddPrompt:           "Write your intention",
		ChooseDate:          "Pick a date, for example 2026-01-05, tomorrow, or next friday",
		InvalidDateFormat:   "I could not read that as a date\ntry YYYY-MM-DD, for example 2026-01-05",
		InvalidDateCalendar: "This date does not exist\ntry a real calendar date",
		InvalidDatePast:     "Choose today or a later date",

		CategoryPrompt:            "Type a category name",
		NoCategories:              "No categories yet",
		CategoriesHeader:          "Categories",
		AddNewCategory:            "Add category",
		CategoryEmpty:             "This category is empty for now",
		AddIntentionAfterCategory: "Add an intention for this category?",
		ChooseCategory:            "Pick a category",

		NoIntentions:     "No intentions yet",
		IntentionsHeader: "My intentions",
		EditIntention:    "Edit",
		DeleteIntention:  "Delete",
		AddDate:          "Add date",
		EditDate:         "Edit date",
		IntentionUpdated: "Updated",
		IntentionDeleted: "Deleted",

		AddDateAction:     "Add date",
		AddCategoryAction: "Add category",
		DoneAction:        "Done",
		ConfigPrompt:      "What would you like to add",
		SavedSummaryTitle: "Intention saved ✨",

		FreeTextPrompt: "Save this as an intention",
		ConfirmYes:     "Yes",
		ConfirmNo:      "No",
		OtherAction:    "Okay, pick something from the menu",

		ReflectionYes:          "Leave a reflection",
		ReflectionInstructions: "Send your thoughts and photos\nwhen you finish, press Done",
		ReflectionDone:         "Done",
		ReflectionCancel:       "Cancel",
		ReflectionSaved:        "Reflection saved ✨",
		ReflectionCancelAck:    "Okay, nothing saved",
		ReflectionsHeader:      "My reflections",
		NoReflections:          "No reflections yet",

		FeedbackTextPrompt: "How was your day ✨\nwrite a short reflection",
		PhotoPrompt:        "Add a photo if you feel like it",
		WriteFeedback:      "Write reflection",
		AddPhoto:           "Add photo",
		SkipToday:          "Skip today",
		FeedbackSaved:      "Saved",
		PhotoSaved:         "Saved",

		TomorrowReminder:       "Tomorrow",
		EveningPrompt:          "How was your day ✨",
		WeeklySummaryTitle:     "Week wrap ✨",
		MonthlySummaryTitle:    "Month wrap ✨",
		MonthlyIntentionsLine:  "Intentions",
		MonthlyDatesLine:       "Dates held",
		MonthlyReflectionsLine: "Reflections",
		MonthlySummaryFooter:   "Ready for a new month",

		BroadcastPrompt:    "Write the message for everyone",
		BroadcastConfirm:   "Send this to all users?",
		BroadcastSent:      "Broadcast sent",
		BroadcastCancelAck: "Broadcast discarded",

		DecryptPlaceholder: "[unable to decrypt]",
	},
	models.LanguageUK: {
		Intro: "М’який спосіб планувати місяць з намірами та короткими підсумками",
		Privacy: strings.Join([]string{
			"Твої наміри та відгуки зберігаються у зашифрованому вигляді",
			"У базі даних це виглядає як набір символів",
			"Справжній текст бачиш тільки ти тут у чаті",
		}, "\n"),
		LearnMore:    "Дізнатися більше",
		OptionalInfo: "Наміри залишаються приватними та зашифрованими\nНагадування приходять у зручний для тебе час",

		MenuAdd:         "Додати намір",
		MenuShow:        "Мої наміри",
		MenuReflections: "Мої відгуки",
		MenuCategories:  "Категорії",
		MenuBroadcast:   "Розсилка",
		MainMenuTitle:   "Меню",

		AddPrompt:           "Напиши свій намір",
		ChooseDate:          "Напиши дату, наприклад 2026-01-05, завтра або наступна п'ятниця",
		InvalidDateFormat:   "Не вдалося прочитати дату\nспробуй YYYY-MM-DD, наприклад 2026-01-05",
		InvalidDateCalendar: "Такої дати не існує\nспробуй реальну календарну дату",
		InvalidDatePast:     "Обери сьогодні або пізнішу дату",

		CategoryPrompt:            "Напиши назву категорії",
		NoCategories:              "Поки що немає категорій",
		CategoriesHeader:          "Категорії",
		AddNewCategory:            "Додати категорію",
		CategoryEmpty:             "Ця категорія поки порожня",
		AddIntentionAfterCategory: "Додати намір для цієї категорії?",
		ChooseCategory:            "Обрати категорію",

		NoIntentions:     "Поки що немає намірів",
		IntentionsHeader: "Мої наміри",
		EditIntention:    "Редагувати",
		DeleteIntention:  "Видалити",
		AddDate:          "Додати дату",
		EditDate:         "Змінити дату",
		IntentionUpdated: "Оновлено",
		IntentionDeleted: "Видалено",

		AddDateAction:     "Додати дату",
		AddCategoryAction: "Додати категорію",
		DoneAction:        "Готово",
		ConfigPrompt:      "Що додамо",
		SavedSummaryTitle: "Намір збережено ✨",

		FreeTextPrompt: "Зберегти це як намір",
		ConfirmYes:     "Так",
		ConfirmNo:      "Ні",
		OtherAction:    "Гаразд, обери щось із меню",

		ReflectionYes:          "Залишити відгук",
		ReflectionInstructions: "Надішли свої думки та фото\nколи закінчиш, натисни Готово",
		ReflectionDone:         "Готово",
		ReflectionCancel:       "Скасувати",
		ReflectionSaved:        "Відгук збережено ✨",
		ReflectionCancelAck:    "Гаразд, нічого не збережено",
		ReflectionsHeader:      "Мої відгуки",
		NoReflections:          "Поки що немає відгуків",

		FeedbackTextPrompt: "Як пройшов твій день ✨\nнапиши короткий відгук",
		PhotoPrompt:        "Додай фото якщо хочеться",
		WriteFeedback:      "Написати відгук",
		AddPhoto:           "Додати фото",
		SkipToday:          "Пропустити сьогодні",
		FeedbackSaved:      "Збережено",
		PhotoSaved:         "Збережено",

		TomorrowReminder:       "Завтра",
		EveningPrompt:          "Як пройшов твій день ✨",
		WeeklySummaryTitle:     "Підсумок тижня ✨",
		MonthlySummaryTitle:    "Підсумок місяця ✨",
		MonthlyIntentionsLine:  "Наміри",
		MonthlyDatesLine:       "Заплановані дати",
		MonthlyReflectionsLine: "Відгуки",
		MonthlySummaryFooter:   "Готова почати новий місяць",

		BroadcastPrompt:    "Напиши повідомлення для всіх",
		BroadcastConfirm:   "Надіслати це всім користувачам?",
		BroadcastSent:      "Розсилку надіслано",
		BroadcastCancelAck: "Розсилку скасовано",

		DecryptPlaceholder: "[не вдалося розшифрувати]",
	},
}

// Get returns the message table for a language, falling back to English.
func Get(lang models.Language) Messages {
	if m, ok := tables[lang]; ok {
		return m
	}
	return tables[models.LanguageEN]
}

var ukMonths = [...]string{
	"січня", "лютого", "березня", "квітня", "травня", "червня",
	"липня", "серпня", "вересня", "жовтня", "листопада", "грудня",
}

// FormatDate renders a canonical YYYY-MM-DD date for display in the given
// language. Unparseable input is returned unchanged.
func FormatDate(date string, lang models.Language) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	if lang == models.LanguageUK {
		return fmt.Sprintf("%d %s %d", t.Day(), ukMonths[int(t.Month())-1], t.Year())
	}
	return t.Format("2 January 2006")
}
