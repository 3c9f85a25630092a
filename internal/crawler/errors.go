package crawler

import (
	"errors"
	"fmt"
)

var errEmptyDetail = errors.New("detail page has no readable text")

// ErrorKind classifica falhas de coleta.
type ErrorKind string

const (
	// KindListing: a página de listagem não pôde ser obtida. Encerra a execução.
	KindListing ErrorKind = "listing"
	// KindDetail: falha em uma página de detalhe. O candidato segue sem detalhe.
	KindDetail ErrorKind = "detail"
	// KindParse: HTML recebido mas sem a estrutura esperada.
	KindParse ErrorKind = "parse"
)

// Error é o erro devolvido pelos adaptadores de fonte.
type Error struct {
	Kind   ErrorKind
	Source string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("[%s] %s %s: %v", e.Kind, e.Source, e.URL, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewListingError cria um erro de listagem.
func NewListingError(source, url string, err error) *Error {
	return &Error{Kind: KindListing, Source: source, URL: url, Err: err}
}

// NewDetailError cria um erro de página de detalhe.
func NewDetailError(source, url string, err error) *Error {
	return &Error{Kind: KindDetail, Source: source, URL: url, Err: err}
}

// NewParseError cria um erro de estrutura inesperada.
func NewParseError(source, url string, err error) *Error {
	return &Error{Kind: KindParse, Source: source, URL: url, Err: err}
}

// Fatal indica que a execução da fonte deve parar.
func (e *Error) Fatal() bool {
	return e.Kind == KindListing
}

// IsFatal indica se o erro deve encerrar a execução da fonte.
func IsFatal(err error) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Fatal()
	}
	return false
}
