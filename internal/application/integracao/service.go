package integracao

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tlourenco/zig-omie-sync/internal/domain/entity"
	domomie "github.com/tlourenco/zig-omie-sync/internal/domain/omie"
	infranfe "github.com/tlourenco/zig-omie-sync/internal/infrastructure/nfe"
	"github.com/tlourenco/zig-omie-sync/internal/infrastructure/zig"
)

// Resumo é a contagem de cupons por estado final de uma execução.
type Resumo struct {
	Loja       string
	Total      int
	Entregues  int
	Duplicados int
	Falhas     int
	Invalidos  int
}

// Service orquestra uma execução de sincronização por loja: busca as notas
// da janela no Zig, normaliza, mapeia e empurra cada cupom pelo portão de
// entrega. Os erros são isolados por documento; somente erro de contexto ou
// de armazenamento aborta a execução inteira.
type Service struct {
	buscador   zig.BuscadorNotas
	mapper     *Mapper
	gate       *Gate
	exportador Exportador
	janela     time.Duration
	log        zerolog.Logger
	agora      func() time.Time
}

// NewService constrói o serviço. exportador pode ser nil quando o relatório
// por cupom está desligado.
func NewService(buscador zig.BuscadorNotas, mapper *Mapper, gate *Gate, exportador Exportador, janela time.Duration, log zerolog.Logger) *Service {
	return &Service{
		buscador:   buscador,
		mapper:     mapper,
		gate:       gate,
		exportador: exportador,
		janela:     janela,
		log:        log,
		agora:      time.Now,
	}
}

// SincronizarLoja executa uma passada completa para uma loja: janela
// retroativa fixa terminando agora, primeira página de resultados do Zig.
func (s *Service) SincronizarLoja(ctx context.Context, loja entity.Loja) (Resumo, error) {
	ate := s.agora()
	de := ate.Add(-s.janela)
	resumo := Resumo{Loja: loja.Nome}

	envelopes, err := s.buscador.BuscarNotas(ctx, loja, de, ate, 1)
	if err != nil {
		return resumo, err
	}
	resumo.Total = len(envelopes)

	s.log.Info().
		Str("loja", loja.Nome).
		Time("de", de).
		Time("ate", ate).
		Int("notas", len(envelopes)).
		Msg("notas recebidas do Zig")

	for _, env := range envelopes {
		// O orçamento da execução vence entre documentos, nunca no meio de
		// uma entrega.
		if err := ctx.Err(); err != nil {
			return resumo, err
		}

		nota, err := infranfe.Parse([]byte(env.XML))
		if err != nil {
			resumo.Invalidos++
			s.log.Warn().
				Err(err).
				Str("loja", loja.Nome).
				Msg("nota inválida descartada")
			continue
		}

		cupom, err := s.mapper.Mapear(nota, env, loja)
		if err != nil {
			// Falha de sequencial é falha de armazenamento: aborta a loja
			// em vez de enviar cupons com numeração não durável.
			return resumo, err
		}

		estado, err := s.gate.Processar(ctx, loja, cupom)
		switch estado {
		case EstadoEntregue:
			resumo.Entregues++
			if err != nil {
				s.log.Error().
					Err(err).
					Str("loja", loja.Nome).
					Str("chNFe", cupom.ChaveNFe()).
					Msg("cupom entregue mas não registrado localmente")
			}
			s.exportar(loja, cupom)
		case EstadoDuplicado:
			resumo.Duplicados++
		case EstadoFalhou:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return resumo, err
			}
			resumo.Falhas++
			s.log.Error().
				Err(err).
				Str("loja", loja.Nome).
				Str("chNFe", cupom.ChaveNFe()).
				Msg("falha na entrega do cupom")
		}
	}

	s.log.Info().
		Str("loja", loja.Nome).
		Int("total", resumo.Total).
		Int("entregues", resumo.Entregues).
		Int("duplicados", resumo.Duplicados).
		Int("falhas", resumo.Falhas).
		Int("invalidos", resumo.Invalidos).
		Msg("sincronização da loja concluída")
	return resumo, nil
}

// exportar gera o relatório do cupom quando o exportador está configurado.
// Falha de exportação não afeta o estado da entrega.
func (s *Service) exportar(loja entity.Loja, cupom *domomie.CupomFiscal) {
	if s.exportador == nil {
		return
	}
	caminho, err := s.exportador.Exportar(cupom)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("loja", loja.Nome).
			Str("chNFe", cupom.ChaveNFe()).
			Msg("falha ao exportar relatório do cupom")
		return
	}
	s.log.Debug().
		Str("loja", loja.Nome).
		Str("arquivo", caminho).
		Msg("relatório do cupom gerado")
}
