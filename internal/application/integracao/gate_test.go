package integracao_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlourenco/zig-omie-sync/internal/application/integracao"
	"github.com/tlourenco/zig-omie-sync/internal/domain"
	"github.com/tlourenco/zig-omie-sync/internal/domain/entity"
	domomie "github.com/tlourenco/zig-omie-sync/internal/domain/omie"
)

// registroFake guarda fingerprints em memória, no mesmo contrato do ledger
// persistido.
type registroFake struct {
	vistos       map[string]bool
	falhaLeitura error
	falhaEscrita error
}

func novoRegistroFake() *registroFake {
	return &registroFake{vistos: make(map[string]bool)}
}

func (r *registroFake) JaEntregue(fp string) (bool, error) {
	if r.falhaLeitura != nil {
		return false, r.falhaLeitura
	}
	return r.vistos[fp], nil
}

func (r *registroFake) Registrar(fp string) error {
	if r.falhaEscrita != nil {
		return r.falhaEscrita
	}
	r.vistos[fp] = true
	return nil
}

// entregadorFake registra cada envio e devolve o erro configurado.
type entregadorFake struct {
	chamadas int
	erro     error
}

func (e *entregadorFake) IncluirCupom(ctx context.Context, loja entity.Loja, cupom *domomie.CupomFiscal) error {
	e.chamadas++
	return e.erro
}

func cupomComFingerprint(fp string) *domomie.CupomFiscal {
	return &domomie.CupomFiscal{
		NFe:  domomie.NFe{ChNFe: "35230800000000000000650010000012341000012349"},
		NFCe: domomie.NFCe{NfceMd5: fp},
	}
}

func TestGate_EntregaERegistra(t *testing.T) {
	registro := novoRegistroFake()
	entregador := &entregadorFake{}
	gate := integracao.NewGate(registro, entregador, 0, zerolog.Nop())

	estado, err := gate.Processar(context.Background(), lojaOtro(), cupomComFingerprint("fp-1"))
	require.NoError(t, err)

	assert.Equal(t, integracao.EstadoEntregue, estado)
	assert.Equal(t, 1, entregador.chamadas)
	assert.True(t, registro.vistos["fp-1"], "o fingerprint só é registrado depois do aceite")
}

func TestGate_DuplicadoLocalNaoEnvia(t *testing.T) {
	registro := novoRegistroFake()
	registro.vistos["fp-1"] = true
	entregador := &entregadorFake{}
	gate := integracao.NewGate(registro, entregador, 0, zerolog.Nop())

	estado, err := gate.Processar(context.Background(), lojaOtro(), cupomComFingerprint("fp-1"))
	require.NoError(t, err)

	assert.Equal(t, integracao.EstadoDuplicado, estado)
	assert.Zero(t, entregador.chamadas, "cupom já registrado nunca volta ao Omie")
}

func TestGate_DuplicadoRemotoNaoRegistra(t *testing.T) {
	registro := novoRegistroFake()
	entregador := &entregadorFake{erro: fmt.Errorf("%w: cupom já cadastrado", domain.ErrCupomDuplicado)}
	gate := integracao.NewGate(registro, entregador, 0, zerolog.Nop())

	estado, err := gate.Processar(context.Background(), lojaOtro(), cupomComFingerprint("fp-1"))
	require.NoError(t, err, "duplicata remota é equivalente a sucesso")

	assert.Equal(t, integracao.EstadoDuplicado, estado)
	assert.False(t, registro.vistos["fp-1"],
		"o ledger local espelha só o que ESTE processo entregou")
}

func TestGate_FalhaNaoRegistra(t *testing.T) {
	registro := novoRegistroFake()
	entregador := &entregadorFake{erro: fmt.Errorf("omie fora do ar")}
	gate := integracao.NewGate(registro, entregador, 0, zerolog.Nop())

	estado, err := gate.Processar(context.Background(), lojaOtro(), cupomComFingerprint("fp-1"))
	require.Error(t, err)

	assert.Equal(t, integracao.EstadoFalhou, estado)
	assert.False(t, registro.vistos["fp-1"], "falha deixa o cupom elegível para nova tentativa")
}

func TestGate_ReprocessamentoNuncaReenvia(t *testing.T) {
	registro := novoRegistroFake()
	entregador := &entregadorFake{}
	gate := integracao.NewGate(registro, entregador, 0, zerolog.Nop())
	cupom := cupomComFingerprint("fp-1")

	_, err := gate.Processar(context.Background(), lojaOtro(), cupom)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		estado, err := gate.Processar(context.Background(), lojaOtro(), cupom)
		require.NoError(t, err)
		assert.Equal(t, integracao.EstadoDuplicado, estado)
	}
	assert.Equal(t, 1, entregador.chamadas, "replay do mesmo cupom nunca gera novo envio")
}

func TestGate_FalhaDeLeituraDoLedger(t *testing.T) {
	registro := novoRegistroFake()
	registro.falhaLeitura = fmt.Errorf("disco ilegível")
	entregador := &entregadorFake{}
	gate := integracao.NewGate(registro, entregador, 0, zerolog.Nop())

	estado, err := gate.Processar(context.Background(), lojaOtro(), cupomComFingerprint("fp-1"))
	require.Error(t, err)

	assert.Equal(t, integracao.EstadoFalhou, estado)
	assert.Zero(t, entregador.chamadas, "sem checagem de duplicata não há envio")
}

func TestGate_EntregueMasNaoRegistrado(t *testing.T) {
	registro := novoRegistroFake()
	registro.falhaEscrita = fmt.Errorf("disco cheio")
	entregador := &entregadorFake{}
	gate := integracao.NewGate(registro, entregador, 0, zerolog.Nop())

	estado, err := gate.Processar(context.Background(), lojaOtro(), cupomComFingerprint("fp-1"))
	require.Error(t, err)
	assert.Equal(t, integracao.EstadoEntregue, estado,
		"o Omie aceitou; a falha de registro vira duplicata remota na próxima execução")
	assert.Equal(t, 1, entregador.chamadas)
}

func TestGate_AtrasoRespeitaCancelamento(t *testing.T) {
	registro := novoRegistroFake()
	entregador := &entregadorFake{}
	gate := integracao.NewGate(registro, entregador, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	estado, err := gate.Processar(ctx, lojaOtro(), cupomComFingerprint("fp-1"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, integracao.EstadoFalhou, estado)
	assert.Zero(t, entregador.chamadas)
}
