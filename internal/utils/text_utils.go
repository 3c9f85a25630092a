package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRunRegex   = regexp.MustCompile(`[\s\p{Zs}\p{Cc}]+`)
	nonWordRegex    = regexp.MustCompile(`[^a-z0-9\s]`)
	multiSpaceRegex = regexp.MustCompile(`\s+`)
)

// Normalize substitui cada sequência de espaços (incluindo quebras de linha, tabs,
// NBSP e caracteres de controle) por um único espaço e remove as bordas.
// Aplicar Normalize sobre um texto já normalizado não altera nada.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(spaceRunRegex.ReplaceAllString(text, " "))
}

// FoldAccents converte para minúsculo e remove acentos ("Inscrições" -> "inscricoes").
// Pontuação e espaços são preservados.
func FoldAccents(text string) string {
	if text == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return folded
}

// NormalizeText normaliza texto para comparações: sem acentos, minúsculo,
// apenas letras, números e espaços simples.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	normalized := nonWordRegex.ReplaceAllString(FoldAccents(text), "")
	normalized = multiSpaceRegex.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}

// Truncate corta o texto em no máximo limit runas, sem quebrar caracteres UTF-8.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}

// FirstNonEmpty retorna o primeiro valor não vazio após Normalize.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if n := Normalize(v); n != "" {
			return n
		}
	}
	return ""
}
