package relatorio_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	domomie "github.com/tlourenco/zig-omie-sync/internal/domain/omie"
	"github.com/tlourenco/zig-omie-sync/internal/infrastructure/relatorio"
)

func cupomRelatorio() *domomie.CupomFiscal {
	return &domomie.CupomFiscal{
		NFe: domomie.NFe{
			ChNFe:  "35230800000000000000650010000012341000012349",
			DEmi:   "15/08/2023",
			HEmi:   "14:30:45",
			NNF:    "1234",
			Serie:  "1",
			TpAmb:  "P",
			TpEmis: "1",
			Total:  domomie.Total{VCF: "63.00"},
			Det: []domomie.Det{
				{
					SeqItem: 1,
					Prod: domomie.Prod{
						CProd:  "101",
						XProd:  "HAMBURGUER ARTESANAL",
						NCM:    "16025000",
						CFOP:   "5102",
						CUn:    "UN",
						NQuant: decimal.RequireFromString("2.0000"),
						VUnit:  decimal.RequireFromString("25.5000"),
						VItem:  decimal.RequireFromString("51.00"),
					},
				},
			},
		},
	}
}

func TestExportar_GeraPlanilha(t *testing.T) {
	gerador, err := relatorio.NewGeradorXLSX(t.TempDir())
	require.NoError(t, err)

	caminho, err := gerador.Exportar(cupomRelatorio())
	require.NoError(t, err)
	require.FileExists(t, caminho)

	f, err := excelize.OpenFile(caminho)
	require.NoError(t, err)
	defer f.Close()

	chave, err := f.GetCellValue("Dados Omie", "A2")
	require.NoError(t, err)
	assert.Equal(t, "35230800000000000000650010000012341000012349", chave)

	ambiente, err := f.GetCellValue("Dados Omie", "F2")
	require.NoError(t, err)
	assert.Equal(t, "Produção", ambiente)

	descricao, err := f.GetCellValue("Dados Omie", "C5")
	require.NoError(t, err)
	assert.Equal(t, "HAMBURGUER ARTESANAL", descricao)
}

func TestExportar_NomeDoArquivoPorNota(t *testing.T) {
	gerador, err := relatorio.NewGeradorXLSX(t.TempDir())
	require.NoError(t, err)

	caminho, err := gerador.Exportar(cupomRelatorio())
	require.NoError(t, err)
	assert.Regexp(t, `omie_1234_\d{14}\.xlsx$`, caminho)
}
