package inventory

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// EncodeCursor token opaco con la clave del último movimiento de la página.
func EncodeCursor(k repository.MovementKey) string {
	raw := strconv.FormatInt(k.Timestamp.UnixNano(), 10) + "." + strconv.FormatInt(k.Seq, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor inverso de EncodeCursor. Un token corrupto es un ValidationError.
func DecodeCursor(s string) (repository.MovementKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return repository.MovementKey{}, domain.NewValidationError("cursor", "token inválido")
	}
	tsPart, seqPart, ok := strings.Cut(string(raw), ".")
	if !ok {
		return repository.MovementKey{}, domain.NewValidationError("cursor", "token inválido")
	}
	ns, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return repository.MovementKey{}, domain.NewValidationError("cursor", "token inválido")
	}
	seq, err := strconv.ParseInt(seqPart, 10, 64)
	if err != nil || seq < 0 {
		return repository.MovementKey{}, domain.NewValidationError("cursor", "token inválido")
	}
	return repository.MovementKey{Timestamp: time.Unix(0, ns).UTC(), Seq: seq}, nil
}
