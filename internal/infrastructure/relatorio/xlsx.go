// Pacote relatorio gera planilhas XLSX dos cupons entregues ao Omie, para
// conferência manual pelo time fiscal.
package relatorio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	domomie "github.com/tlourenco/zig-omie-sync/internal/domain/omie"
)

const nomePlanilha = "Dados Omie"

// GeradorXLSX escreve um arquivo por cupom no diretório configurado.
type GeradorXLSX struct {
	dir   string
	agora func() time.Time
}

// NewGeradorXLSX constrói o gerador, criando o diretório de saída se preciso.
func NewGeradorXLSX(dir string) (*GeradorXLSX, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("criar diretório de relatórios: %w", err)
	}
	return &GeradorXLSX{dir: dir, agora: time.Now}, nil
}

// Exportar gera a planilha do cupom e devolve o caminho do arquivo.
func (g *GeradorXLSX) Exportar(cupom *domomie.CupomFiscal) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	indice, err := f.NewSheet(nomePlanilha)
	if err != nil {
		return "", fmt.Errorf("criar planilha: %w", err)
	}
	f.SetActiveSheet(indice)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("remover planilha padrão: %w", err)
	}

	negrito, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("criar estilo: %w", err)
	}

	cabecalho := []interface{}{
		"Chave NF-e", "Data Emissão", "Hora Emissão", "Número NF",
		"Série", "Ambiente", "Tipo Emissão", "Valor Total",
	}
	if err := f.SetSheetRow(nomePlanilha, "A1", &cabecalho); err != nil {
		return "", fmt.Errorf("escrever cabeçalho: %w", err)
	}
	if err := f.SetCellStyle(nomePlanilha, "A1", "H1", negrito); err != nil {
		return "", fmt.Errorf("aplicar estilo: %w", err)
	}

	linha := []interface{}{
		cupom.NFe.ChNFe,
		cupom.NFe.DEmi,
		cupom.NFe.HEmi,
		cupom.NFe.NNF,
		cupom.NFe.Serie,
		ambientePorExtenso(cupom.NFe.TpAmb),
		cupom.NFe.TpEmis,
		cupom.NFe.Total.VCF,
	}
	if err := f.SetSheetRow(nomePlanilha, "A2", &linha); err != nil {
		return "", fmt.Errorf("escrever nota: %w", err)
	}

	// Linha 3 fica em branco separando a nota dos itens.
	itemCabecalho := []interface{}{
		"Item", "Código", "Descrição", "NCM", "CFOP",
		"Unidade", "Quantidade", "Valor Unitário", "Valor Total",
	}
	if err := f.SetSheetRow(nomePlanilha, "A4", &itemCabecalho); err != nil {
		return "", fmt.Errorf("escrever cabeçalho de itens: %w", err)
	}
	if err := f.SetCellStyle(nomePlanilha, "A4", "I4", negrito); err != nil {
		return "", fmt.Errorf("aplicar estilo: %w", err)
	}

	for i, det := range cupom.NFe.Det {
		celula := fmt.Sprintf("A%d", 5+i)
		itemLinha := []interface{}{
			det.SeqItem,
			det.Prod.CProd,
			det.Prod.XProd,
			det.Prod.NCM,
			det.Prod.CFOP,
			det.Prod.CUn,
			det.Prod.NQuant.String(),
			det.Prod.VUnit.String(),
			det.Prod.VItem.String(),
		}
		if err := f.SetSheetRow(nomePlanilha, celula, &itemLinha); err != nil {
			return "", fmt.Errorf("escrever item %d: %w", det.SeqItem, err)
		}
	}

	nome := fmt.Sprintf("omie_%s_%s.xlsx", cupom.NFe.NNF, g.agora().Format("20060102150405"))
	caminho := filepath.Join(g.dir, nome)
	if err := f.SaveAs(caminho); err != nil {
		return "", fmt.Errorf("salvar planilha: %w", err)
	}
	return caminho, nil
}

func ambientePorExtenso(tpAmb string) string {
	if tpAmb == "P" {
		return "Produção"
	}
	return "Homologação"
}
