package listing

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/utils"
)

// DedupKey gera a identidade do anúncio dentro de uma execução.
func DedupKey(title, url string) string {
	return strings.ToLower(utils.Normalize(title)) + "|" + url
}

// DedupHash gera o identificador persistente usado entre execuções.
func DedupHash(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash)
}

// SeenSet guarda as chaves já emitidas em uma execução. Não é seguro para uso
// concorrente; o pipeline é sequencial.
type SeenSet struct {
	keys map[string]struct{}
}

// NewSeenSet cria um conjunto vazio.
func NewSeenSet() *SeenSet {
	return &SeenSet{keys: make(map[string]struct{})}
}

// IsDuplicate informa se a chave já foi vista e, caso contrário, a registra.
func (s *SeenSet) IsDuplicate(key string) bool {
	if _, ok := s.keys[key]; ok {
		return true
	}
	s.keys[key] = struct{}{}
	return false
}

// Len retorna quantas chaves distintas foram registradas.
func (s *SeenSet) Len() int {
	return len(s.keys)
}

// Contains consulta a chave sem registrá-la.
func (s *SeenSet) Contains(key string) bool {
	_, ok := s.keys[key]
	return ok
}
