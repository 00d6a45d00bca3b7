package integracao

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tlourenco/zig-omie-sync/internal/domain"
	"github.com/tlourenco/zig-omie-sync/internal/domain/entity"
)

// Agendador dispara as execuções periódicas de sincronização. Cada loja tem
// seu próprio guarda de sobreposição: se um ciclo começa enquanto a execução
// anterior da mesma loja ainda roda, a nova é pulada em vez de enfileirada.
type Agendador struct {
	servico   *Service
	lojas     []entity.Loja
	intervalo time.Duration
	orcamento time.Duration
	log       zerolog.Logger

	guardas map[string]*sync.Mutex
}

// NewAgendador constrói o agendador. intervalo é o período entre ciclos e
// orcamento o teto de duração de cada execução por loja.
func NewAgendador(servico *Service, lojas []entity.Loja, intervalo, orcamento time.Duration, log zerolog.Logger) *Agendador {
	guardas := make(map[string]*sync.Mutex, len(lojas))
	for _, loja := range lojas {
		guardas[loja.Nome] = &sync.Mutex{}
	}
	return &Agendador{
		servico:   servico,
		lojas:     lojas,
		intervalo: intervalo,
		orcamento: orcamento,
		log:       log,
		guardas:   guardas,
	}
}

// Executar roda um ciclo imediatamente e depois a cada intervalo, até o
// contexto ser cancelado.
func (a *Agendador) Executar(ctx context.Context) {
	a.ExecutarUmaVez(ctx)

	ticker := time.NewTicker(a.intervalo)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.log.Info().Msg("agendador encerrado")
			return
		case <-ticker.C:
			a.ExecutarUmaVez(ctx)
		}
	}
}

// ExecutarUmaVez roda um ciclo completo: todas as lojas, em sequência.
func (a *Agendador) ExecutarUmaVez(ctx context.Context) {
	for _, loja := range a.lojas {
		if ctx.Err() != nil {
			return
		}
		if err := a.executarLoja(ctx, loja); err != nil && !errors.Is(err, domain.ErrExecucaoEmAndamento) {
			a.log.Error().
				Err(err).
				Str("loja", loja.Nome).
				Msg("execução da loja terminou com erro")
		}
	}
}

func (a *Agendador) executarLoja(ctx context.Context, loja entity.Loja) error {
	guarda := a.guardas[loja.Nome]
	if !guarda.TryLock() {
		a.log.Warn().
			Str("loja", loja.Nome).
			Msg("execução anterior ainda em andamento, ciclo pulado")
		return domain.ErrExecucaoEmAndamento
	}
	defer guarda.Unlock()

	runID := uuid.NewString()
	log := a.log.With().Str("run_id", runID).Str("loja", loja.Nome).Logger()

	execCtx, cancel := context.WithTimeout(ctx, a.orcamento)
	defer cancel()

	inicio := time.Now()
	log.Info().Msg("execução iniciada")

	resumo, err := a.servico.SincronizarLoja(execCtx, loja)
	duracao := time.Since(inicio)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// Orçamento estourado não é falha dura: o que foi entregue está
			// registrado e o restante entra na próxima janela.
			log.Warn().
				Dur("duracao", duracao).
				Int("entregues", resumo.Entregues).
				Int("restantes", resumo.Total-resumo.Entregues-resumo.Duplicados-resumo.Invalidos).
				Msg("orçamento da execução esgotado")
			return nil
		}
		return err
	}

	log.Info().
		Dur("duracao", duracao).
		Int("entregues", resumo.Entregues).
		Msg("execução concluída")
	return nil
}
