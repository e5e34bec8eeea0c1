package moderation

import (
	"fmt"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"tiktroq/internal/domain"
)

// DefaultBannedTerms — список запрещённых слов. Порядок важен: при нескольких
// совпадениях в вердикт попадает первое слово списка.
var DefaultBannedTerms = []string{"arme", "drogue", "contrefaçon", "fake", "haine", "race", "insulte"}

// Verdict — результат проверки текста.
type Verdict struct {
	Clean       bool   `json:"clean"`
	MatchedTerm string `json:"matchedTerm,omitempty"`
}

type bannedTerm struct {
	original   string
	normalized string
}

// Moderator проверяет текст по списку запрещённых слов.
type Moderator struct {
	terms []bannedTerm
}

// NewModerator создаёт модератор. Пустые слова отбрасываются. Слова списка
// нормализуются так же, как текст, поэтому «contrefaçon» ловит и «contrefacon».
func NewModerator(terms []string) *Moderator {
	m := &Moderator{terms: make([]bannedTerm, 0, len(terms))}
	for _, term := range terms {
		normalized := Normalize(strings.TrimSpace(term))
		if normalized == "" {
			continue
		}
		m.terms = append(m.terms, bannedTerm{original: term, normalized: normalized})
	}
	return m
}

// NewDefault создаёт модератор со стандартным списком.
func NewDefault() *Moderator {
	return NewModerator(DefaultBannedTerms)
}

// Moderate проверяет текст. Пустой текст всегда чистый.
func (m *Moderator) Moderate(text string) Verdict {
	if text == "" {
		return Verdict{Clean: true}
	}
	normalized := Normalize(text)
	for _, term := range m.terms {
		if strings.Contains(normalized, term.normalized) {
			return Verdict{Clean: false, MatchedTerm: term.original}
		}
	}
	return Verdict{Clean: true}
}

// ModerateOptional проверяет необязательный текст; nil считается чистым.
func (m *Moderator) ModerateOptional(text *string) Verdict {
	if text == nil {
		return Verdict{Clean: true}
	}
	return m.Moderate(*text)
}

// StatusFor переводит вердикт в статус нового объявления.
// Статус rejected выставляет только ручная модерация.
func StatusFor(v Verdict) domain.ModerationStatus {
	if v.Clean {
		return domain.StatusApproved
	}
	return domain.StatusPending
}

// Reason возвращает пояснение для пользователя.
func Reason(v Verdict) string {
	if v.Clean {
		return ""
	}
	return fmt.Sprintf("Contenu suspect détecté: %q", v.MatchedTerm)
}

func isCombiningMark(r rune) bool {
	return r >= 0x0300 && r <= 0x036f
}

// Normalize раскладывает текст (NFD), удаляет диакритику и приводит к нижнему регистру.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(isCombiningMark)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.ToLower(stripped)
}
