package integracao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tlourenco/zig-omie-sync/internal/domain"
	"github.com/tlourenco/zig-omie-sync/internal/domain/entity"
	domomie "github.com/tlourenco/zig-omie-sync/internal/domain/omie"
	"github.com/tlourenco/zig-omie-sync/internal/infrastructure/omie"
)

// Estado é o resultado do cupom no portão de entrega.
type Estado string

const (
	// EstadoDuplicado: o cupom já foi entregue antes, localmente ou pelo
	// Omie. Não é falha.
	EstadoDuplicado Estado = "duplicado"
	// EstadoEntregue: o Omie aceitou o cupom e o fingerprint foi registrado.
	EstadoEntregue Estado = "entregue"
	// EstadoFalhou: a entrega falhou e o fingerprint NÃO foi registrado; o
	// cupom volta a ser elegível na próxima execução.
	EstadoFalhou Estado = "falhou"
)

// Gate decide se um cupom mapeado é entregue ao Omie. Verifica o registro
// local de fingerprints antes de enviar e só registra a entrega depois do
// aceite, preservando a semântica at-least-once: uma falha nunca marca o
// cupom como entregue.
type Gate struct {
	registro   RegistroEntregas
	entregador omie.IncluidorCupom
	atraso     time.Duration
	log        zerolog.Logger
}

// NewGate constrói o portão. atraso é a pausa respeitosa antes de cada envio
// remoto (zero desliga a pausa).
func NewGate(registro RegistroEntregas, entregador omie.IncluidorCupom, atraso time.Duration, log zerolog.Logger) *Gate {
	return &Gate{registro: registro, entregador: entregador, atraso: atraso, log: log}
}

// Processar leva um cupom do estado pendente ao seu estado final. A resposta
// de duplicata do Omie é tratada como sucesso sem registro local: o Omie já
// conhece o cupom e o registro local permanece espelho só do que ESTE
// processo entregou.
func (g *Gate) Processar(ctx context.Context, loja entity.Loja, cupom *domomie.CupomFiscal) (Estado, error) {
	fp := cupom.Fingerprint()

	visto, err := g.registro.JaEntregue(fp)
	if err != nil {
		return EstadoFalhou, fmt.Errorf("consultar registro de entregas: %w", err)
	}
	if visto {
		g.log.Debug().
			Str("loja", loja.Nome).
			Str("chNFe", cupom.ChaveNFe()).
			Str("fingerprint", fp).
			Msg("cupom já entregue, pulando")
		return EstadoDuplicado, nil
	}

	if g.atraso > 0 {
		select {
		case <-ctx.Done():
			return EstadoFalhou, ctx.Err()
		case <-time.After(g.atraso):
		}
	}

	if err := g.entregador.IncluirCupom(ctx, loja, cupom); err != nil {
		if errors.Is(err, domain.ErrCupomDuplicado) {
			g.log.Info().
				Str("loja", loja.Nome).
				Str("chNFe", cupom.ChaveNFe()).
				Msg("Omie reportou cupom duplicado")
			return EstadoDuplicado, nil
		}
		return EstadoFalhou, err
	}

	if err := g.registro.Registrar(fp); err != nil {
		// O cupom foi aceito mas o registro falhou: na próxima execução ele
		// será reenviado e o Omie responderá duplicata. At-least-once.
		return EstadoEntregue, fmt.Errorf("registrar entrega: %w", err)
	}

	g.log.Info().
		Str("loja", loja.Nome).
		Str("chNFe", cupom.ChaveNFe()).
		Str("fingerprint", fp).
		Msg("cupom entregue ao Omie")
	return EstadoEntregue, nil
}
