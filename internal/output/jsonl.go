package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/service"
)

// JSONLWriter escreve um ListingRecord por linha (JSON Lines, UTF-8).
type JSONLWriter struct {
	enc *json.Encoder
}

// NewJSONLWriter cria o escritor sobre w. Caracteres não ASCII e HTML são
// emitidos sem escape.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{enc: enc}
}

// Write implementa service.Sink.
func (w *JSONLWriter) Write(_ context.Context, _ service.RunInfo, rec listing.ListingRecord) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}
