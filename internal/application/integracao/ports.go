package integracao

import (
	"time"

	domomie "github.com/tlourenco/zig-omie-sync/internal/domain/omie"
)

// Sequenciador é o porto do alocador de sequenciais diários. A alocação é
// durável: o valor devolvido já está persistido.
type Sequenciador interface {
	Proximo(tipo string, dia time.Time) (int, error)
}

// RegistroEntregas é o porto do ledger de fingerprints já entregues.
type RegistroEntregas interface {
	JaEntregue(fingerprint string) (bool, error)
	Registrar(fingerprint string) error
}

// Exportador gera o relatório de um cupom entregue e devolve o caminho do
// arquivo gerado. Opcional: nil desabilita a exportação.
type Exportador interface {
	Exportar(cupom *domomie.CupomFiscal) (string, error)
}
