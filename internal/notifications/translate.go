package notifications

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys used by the scheduler.
const (
	MsgScheduleSaved   = "schedule.saved"
	MsgScheduleFailed  = "schedule.failed"
	MsgRefreshFailed   = "schedule.refresh_failed"
	MsgDragCancelled   = "schedule.drag_cancelled"
	reasonUnknownError = "unknown_error"
)

var english = map[string]string{
	MsgScheduleSaved:   "Schedule for %s updated",
	MsgScheduleFailed:  "Could not reschedule %s: %s",
	MsgRefreshFailed:   "Could not load the production schedule",
	MsgDragCancelled:   "Change to %s discarded",
	"schedule_conflict": "the work center is already booked in that period",
	"order_not_found":   "the order no longer exists",
	"validation_failed": "the new dates were rejected",
	"order_locked":      "the order is already in production and cannot be moved",
	"unauthorized":      "you are not allowed to change the schedule",
	"network_error":     "the server could not be reached",
	reasonUnknownError:  "unexpected server error",
}

var polish = map[string]string{
	MsgScheduleSaved:   "Zaktualizowano harmonogram %s",
	MsgScheduleFailed:  "Nie udało się przesunąć %s: %s",
	MsgRefreshFailed:   "Nie udało się pobrać harmonogramu produkcji",
	MsgDragCancelled:   "Odrzucono zmianę %s",
	"schedule_conflict": "stanowisko jest już zajęte w tym okresie",
	"order_not_found":   "zlecenie już nie istnieje",
	"validation_failed": "nowe daty zostały odrzucone",
	"order_locked":      "zlecenie jest w produkcji i nie można go przesunąć",
	"unauthorized":      "brak uprawnień do zmiany harmonogramu",
	"network_error":     "brak połączenia z serwerem",
	reasonUnknownError:  "nieoczekiwany błąd serwera",
}

var (
	supported = []language.Tag{language.English, language.Polish}
	matcher   = language.NewMatcher(supported)
	messages  = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range english {
		if err := b.SetString(language.English, key, msg); err != nil {
			panic(err)
		}
	}
	for key, msg := range polish {
		if err := b.SetString(language.Polish, key, msg); err != nil {
			panic(err)
		}
	}
	return b
}

// Coded is implemented by errors that carry a machine-readable reason.
type Coded interface {
	ErrorCode() string
}

// Translator renders user-facing messages in one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// NewTranslator picks the best supported language for lang ("pl", "en-GB", ...).
func NewTranslator(lang string) *Translator {
	tag, _ := language.MatchStrings(matcher, lang)
	base, _ := tag.Base()
	tag = language.Make(base.String())
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(messages)),
	}
}

func (t *Translator) Language() language.Tag {
	return t.tag
}

func (t *Translator) Text(key string, args ...interface{}) string {
	return t.printer.Sprintf(key, args...)
}

// Reason turns an error into a human-readable failure reason. Errors with a
// known code are translated; otherwise the error's own message is used.
func (t *Translator) Reason(err error) string {
	if err == nil {
		return ""
	}

	var coded Coded
	if errors.As(err, &coded) {
		if code := coded.ErrorCode(); code != "" {
			if _, ok := english[code]; ok {
				return t.printer.Sprintf(code)
			}
		}
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return t.printer.Sprintf(reasonUnknownError)
}
