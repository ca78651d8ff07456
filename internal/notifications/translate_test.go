package notifications

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string     { return e.msg }
func (e *codedError) ErrorCode() string { return e.code }

func TestNewTranslatorMatchesLanguage(t *testing.T) {
	assert.Equal(t, language.Polish, NewTranslator("pl-PL").Language())
	assert.Equal(t, language.English, NewTranslator("en-GB").Language())
	assert.Equal(t, language.English, NewTranslator("").Language())
}

func TestTranslatorText(t *testing.T) {
	assert.Equal(t, "Schedule for J1 updated", NewTranslator("en").Text(MsgScheduleSaved, "J1"))
	assert.Equal(t, "Zaktualizowano harmonogram J1", NewTranslator("pl").Text(MsgScheduleSaved, "J1"))
}

func TestTranslatorReason(t *testing.T) {
	testCases := []struct {
		name string
		lang string
		err  error
		want string
	}{
		{
			name: "known code in polish",
			lang: "pl",
			err:  &codedError{code: "schedule_conflict", msg: "409 Conflict"},
			want: "stanowisko jest już zajęte w tym okresie",
		},
		{
			name: "known code wrapped",
			lang: "en",
			err:  fmt.Errorf("update J1: %w", &codedError{code: "order_not_found", msg: "404"}),
			want: "the order no longer exists",
		},
		{
			name: "unknown code falls back to message",
			lang: "en",
			err:  &codedError{code: "quota", msg: "quota exceeded"},
			want: "quota exceeded",
		},
		{
			name: "plain error",
			lang: "en",
			err:  errors.New("boom"),
			want: "boom",
		},
		{
			name: "empty message",
			lang: "en",
			err:  &codedError{},
			want: "unexpected server error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewTranslator(tc.lang).Reason(tc.err))
		})
	}

	assert.Empty(t, NewTranslator("en").Reason(nil))
}
