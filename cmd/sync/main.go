package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/tlourenco/zig-omie-sync/internal/application/integracao"
	"github.com/tlourenco/zig-omie-sync/internal/infrastructure/ledger"
	infraomie "github.com/tlourenco/zig-omie-sync/internal/infrastructure/omie"
	"github.com/tlourenco/zig-omie-sync/internal/infrastructure/relatorio"
	infrazig "github.com/tlourenco/zig-omie-sync/internal/infrastructure/zig"
	"github.com/tlourenco/zig-omie-sync/pkg/config"
	"github.com/tlourenco/zig-omie-sync/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("preset", cfg.Sync.Preset).
		Int("lojas", len(cfg.Lojas)).
		Msg("iniciando aplicação")

	store, err := ledger.NewFileStore(cfg.Ledger.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir diretório de estado")
	}
	sequenciador := ledger.NewSequenciador(store)
	registro := ledger.NewRegistroEntregas(store)

	zigClient := infrazig.NewClient(cfg.Zig.BaseURL)
	omieClient := infraomie.NewClient(cfg.Omie.BaseURL)

	var exportador integracao.Exportador
	if cfg.Relatorio.Ativo {
		gerador, err := relatorio.NewGeradorXLSX(cfg.Relatorio.Dir)
		if err != nil {
			log.Fatal().Err(err).Msg("abrir diretório de relatórios")
		}
		exportador = gerador
	}

	mapper := integracao.NewMapper(sequenciador, cfg.Sync.CaixaAberto)
	gate := integracao.NewGate(registro, omieClient, cfg.Sync.Atraso, log)
	servico := integracao.NewService(zigClient, mapper, gate, exportador, cfg.Sync.Janela, log)
	agendador := integracao.NewAgendador(servico, cfg.Lojas, cfg.Sync.Intervalo, cfg.Sync.Orcamento, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agendador.Executar(ctx)
	log.Info().Msg("aplicação encerrada")
}
