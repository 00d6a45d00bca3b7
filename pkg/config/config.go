package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tlourenco/zig-omie-sync/internal/domain/entity"
)

// Config agrupa a configuração da aplicação (leitura via Viper de env e
// opcionalmente arquivo .env).
type Config struct {
	App       AppConfig
	Sync      SyncConfig
	Zig       ZigConfig
	Omie      OmieConfig
	Ledger    LedgerConfig
	Relatorio RelatorioConfig
	Lojas     []entity.Loja
}

// AppConfig configuração geral da aplicação.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// SyncConfig parâmetros de agendamento e janela de busca. Os valores vêm do
// preset escolhido, com override individual por env var.
type SyncConfig struct {
	Preset      string        // "lojas" ou "continuo"
	Intervalo   time.Duration // período entre ciclos
	Orcamento   time.Duration // teto de duração de cada execução por loja
	Atraso      time.Duration // pausa antes de cada envio ao Omie (0 = sem pausa)
	Janela      time.Duration // janela retroativa de busca no Zig
	CaixaAberto bool          // lCxAberto enviado em cada cupom
}

// ZigConfig configuração do cliente da API do Zig.
type ZigConfig struct {
	BaseURL string
}

// OmieConfig configuração do cliente da API do Omie.
type OmieConfig struct {
	BaseURL string
}

// LedgerConfig diretório dos arquivos de estado (sequenciais e fingerprints).
type LedgerConfig struct {
	Dir string
}

// RelatorioConfig exportação XLSX por cupom entregue.
type RelatorioConfig struct {
	Ativo bool
	Dir   string
}

// presets nomeados de agendamento. "lojas" é o ciclo de varredura lenta com
// pausa entre envios; "continuo" é o ciclo curto de quase tempo real.
var presets = map[string]SyncConfig{
	"lojas": {
		Preset:      "lojas",
		Intervalo:   8 * time.Hour,
		Orcamento:   15 * time.Minute,
		Atraso:      3 * time.Minute,
		Janela:      24 * time.Hour,
		CaixaAberto: true,
	},
	"continuo": {
		Preset:      "continuo",
		Intervalo:   10 * time.Second,
		Orcamento:   4 * time.Minute,
		Atraso:      0,
		Janela:      time.Hour,
		CaixaAberto: false,
	},
}

// Load lê a configuração de variáveis de ambiente (e opcionalmente de
// arquivo). As env vars têm prioridade. Nomes esperados: APP_ENV, SYNC_PRESET,
// LOJAS, ZIG_TOKEN_<LOJA>, OMIE_APP_KEY_<LOJA>, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: arquivo de configuração (.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos erro se não existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	preset := getString(v, "SYNC_PRESET", "lojas")
	sync, ok := presets[preset]
	if !ok {
		return nil, fmt.Errorf("preset de sincronização desconhecido: %q", preset)
	}
	// Overrides individuais sobre o preset
	sync.Intervalo = getDuration(v, "SYNC_INTERVALO", sync.Intervalo)
	sync.Orcamento = getDuration(v, "SYNC_ORCAMENTO", sync.Orcamento)
	sync.Atraso = getDuration(v, "SYNC_ATRASO", sync.Atraso)
	sync.Janela = getDuration(v, "SYNC_JANELA", sync.Janela)
	sync.CaixaAberto = getBool(v, "SYNC_CAIXA_ABERTO", sync.CaixaAberto)

	lojas, err := carregarLojas(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "zig-omie-sync"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		Sync: sync,
		Zig: ZigConfig{
			// Vazio usa o endpoint de produção do cliente.
			BaseURL: getString(v, "ZIG_BASE_URL", ""),
		},
		Omie: OmieConfig{
			BaseURL: getString(v, "OMIE_BASE_URL", ""),
		},
		Ledger: LedgerConfig{
			Dir: getString(v, "LEDGER_DIR", "./dados"),
		},
		Relatorio: RelatorioConfig{
			Ativo: getBool(v, "RELATORIO_ATIVO", false),
			Dir:   getString(v, "RELATORIO_DIR", "./relatorios"),
		},
		Lojas: lojas,
	}

	return cfg, nil
}

// carregarLojas monta o perfil de cada loja listada em LOJAS a partir das env
// vars com sufixo do nome em maiúsculas (ZIG_TOKEN_OTRO, OMIE_APP_KEY_OTRO...).
// Credenciais ausentes são erro de configuração, não fallback silencioso.
func carregarLojas(v *viper.Viper) ([]entity.Loja, error) {
	nomes := strings.Split(getString(v, "LOJAS", "otro,tratto"), ",")
	lojas := make([]entity.Loja, 0, len(nomes))
	for _, nome := range nomes {
		nome = strings.TrimSpace(strings.ToLower(nome))
		if nome == "" {
			continue
		}
		sufixo := strings.ToUpper(nome)
		loja := entity.Loja{
			Nome:          nome,
			ZigToken:      getString(v, "ZIG_TOKEN_"+sufixo, ""),
			ZigRede:       getString(v, "ZIG_REDE_"+sufixo, ""),
			OmieAppKey:    getString(v, "OMIE_APP_KEY_"+sufixo, ""),
			OmieAppSecret: getString(v, "OMIE_APP_SECRET_"+sufixo, ""),
			CentroCusto:   getString(v, "CC_"+sufixo, ""),
		}
		if loja.ZigToken == "" || loja.ZigRede == "" {
			return nil, fmt.Errorf("loja %q sem credenciais do Zig (ZIG_TOKEN_%s, ZIG_REDE_%s)", nome, sufixo, sufixo)
		}
		if loja.OmieAppKey == "" || loja.OmieAppSecret == "" {
			return nil, fmt.Errorf("loja %q sem credenciais do Omie (OMIE_APP_KEY_%s, OMIE_APP_SECRET_%s)", nome, sufixo, sufixo)
		}
		lojas = append(lojas, loja)
	}
	if len(lojas) == 0 {
		return nil, fmt.Errorf("nenhuma loja configurada em LOJAS")
	}
	return lojas, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case bool:
			return v.GetBool(key)
		case string:
			b, err := strconv.ParseBool(v.GetString(key))
			if err != nil {
				return def
			}
			return b
		default:
			return v.GetBool(key)
		}
	}
	return def
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return def
		}
		return d
	}
	return def
}
