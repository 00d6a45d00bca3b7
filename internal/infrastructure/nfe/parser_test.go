package nfe_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlourenco/zig-omie-sync/internal/infrastructure/nfe"
)

// xmlCompleto é um nfeProc mínimo mas realista: dois itens, protocolo de
// autorização fora da subárvore da nota e dhEmi com offset -03:00.
const xmlCompleto = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  <NFe>
    <infNFe Id="NFe35230800000000000000650010000012341000012349" versao="4.00">
      <ide>
        <cUF>35</cUF>
        <cNF>00001234</cNF>
        <natOp>VENDA</natOp>
        <mod>65</mod>
        <serie>1</serie>
        <nNF>1234</nNF>
        <dhEmi>2023-08-15T14:30:45-03:00</dhEmi>
        <tpNF>1</tpNF>
        <tpAmb>1</tpAmb>
        <tpEmis>1</tpEmis>
        <verProc>4.0.1</verProc>
      </ide>
      <emit>
        <CNPJ>12345678000199</CNPJ>
        <xNome>OTRO COMERCIO DE ALIMENTOS LTDA</xNome>
        <xFant>COMERCIO DE OTRO LTDA</xFant>
        <IE>123456789</IE>
        <CRT>1</CRT>
      </emit>
      <det nItem="1">
        <prod>
          <cProd>101</cProd>
          <cEAN>SEM GTIN</cEAN>
          <xProd>HAMBURGUER ARTESANAL</xProd>
          <NCM>16025000</NCM>
          <CFOP>5102</CFOP>
          <uCom>UN</uCom>
          <qCom>2.0000</qCom>
          <vUnCom>25.5000</vUnCom>
          <vProd>51.00</vProd>
        </prod>
      </det>
      <det nItem="2">
        <prod>
          <cProd>202</cProd>
          <cEAN>SEM GTIN</cEAN>
          <xProd>SUCO NATURAL 500ML</xProd>
          <NCM>20098990</NCM>
          <CFOP>5102</CFOP>
          <uCom>UN</uCom>
          <qCom>1.0000</qCom>
          <vUnCom>12.0000</vUnCom>
          <vProd>12.00</vProd>
        </prod>
      </det>
      <total>
        <ICMSTot>
          <vProd>63.00</vProd>
          <vICMS>1.89</vICMS>
          <vDesc>0.00</vDesc>
          <vNF>63.00</vNF>
          <vTotTrib>8.12</vTotTrib>
        </ICMSTot>
      </total>
    </infNFe>
  </NFe>
  <protNFe versao="4.00">
    <infProt>
      <nProt>135230000012345</nProt>
    </infProt>
  </protNFe>
</nfeProc>`

func TestParse_NotaCompleta(t *testing.T) {
	nota, err := nfe.Parse([]byte(xmlCompleto))
	require.NoError(t, err)

	assert.Equal(t, "NFe35230800000000000000650010000012341000012349", nota.ID)
	assert.Equal(t, "4.00", nota.Versao)
	assert.Equal(t, "1", nota.Ide.Serie)
	assert.Equal(t, "1234", nota.Ide.NNF)
	assert.Equal(t, "1", nota.Ide.TpAmb)
	assert.Equal(t, "1", nota.Ide.TpEmis)
	assert.Equal(t, "65", nota.Ide.Mod)
	assert.Equal(t, "4.0.1", nota.Ide.VerProc)
	assert.Equal(t, "OTRO COMERCIO DE ALIMENTOS LTDA", nota.Emit.XNome)
	assert.Equal(t, "COMERCIO DE OTRO LTDA", nota.Emit.XFant)
	assert.Equal(t, "63.00", nota.Total.VProd)
	assert.Equal(t, "1.89", nota.Total.VICMS)
	assert.Equal(t, "0.00", nota.Total.VDesc)
	assert.Equal(t, "63.00", nota.Total.VNF)
	assert.Equal(t, "8.12", nota.Total.VTotTrib)
	assert.Equal(t, "135230000012345", nota.NProt,
		"o protocolo fica fora da subárvore da nota e ainda assim deve ser extraído")
}

func TestParse_PreservaOffsetDoDocumento(t *testing.T) {
	nota, err := nfe.Parse([]byte(xmlCompleto))
	require.NoError(t, err)

	_, offset := nota.Ide.DhEmi.Zone()
	assert.Equal(t, -3*60*60, offset, "o offset do documento deve ser preservado, não convertido")
	assert.Equal(t, "15/08/2023", nota.Ide.DhEmi.Format("02/01/2006"))
	assert.Equal(t, "14:30:45", nota.Ide.DhEmi.Format("15:04:05"))
}

func TestParse_ItensNaOrdemDoDocumento(t *testing.T) {
	nota, err := nfe.Parse([]byte(xmlCompleto))
	require.NoError(t, err)

	require.Len(t, nota.Itens, 2)
	assert.Equal(t, 1, nota.Itens[0].NItem)
	assert.Equal(t, "HAMBURGUER ARTESANAL", nota.Itens[0].XProd)
	assert.Equal(t, "2.0000", nota.Itens[0].QCom)
	assert.Equal(t, "25.5000", nota.Itens[0].VUnCom)
	assert.Equal(t, 2, nota.Itens[1].NItem)
	assert.Equal(t, "SUCO NATURAL 500ML", nota.Itens[1].XProd)
}

func TestParse_SemProtocoloNaoFalha(t *testing.T) {
	semProt := strings.Replace(xmlCompleto, "<protNFe versao=\"4.00\">\n    <infProt>\n      <nProt>135230000012345</nProt>\n    </infProt>\n  </protNFe>", "", 1)
	require.NotEqual(t, xmlCompleto, semProt)

	nota, err := nfe.Parse([]byte(semProt))
	require.NoError(t, err)
	assert.Empty(t, nota.NProt)
}

func TestParse_CampoObrigatorioAusente(t *testing.T) {
	casos := map[string]struct {
		remover  string
		elemento string
	}{
		"sem serie":  {"<serie>1</serie>", "ide/serie"},
		"sem nNF":    {"<nNF>1234</nNF>", "ide/nNF"},
		"sem dhEmi":  {"<dhEmi>2023-08-15T14:30:45-03:00</dhEmi>", "ide/dhEmi"},
		"sem tpAmb":  {"<tpAmb>1</tpAmb>", "ide/tpAmb"},
		"sem xFant":  {"<xFant>COMERCIO DE OTRO LTDA</xFant>", "emit/xFant"},
		"sem vNF":    {"<vNF>63.00</vNF>", "total/ICMSTot/vNF"},
		"sem vProd total": {"<vProd>63.00</vProd>", "total/ICMSTot/vProd"},
	}

	for nome, caso := range casos {
		t.Run(nome, func(t *testing.T) {
			mutilado := strings.Replace(xmlCompleto, caso.remover, "", 1)
			require.NotEqual(t, xmlCompleto, mutilado, "o fixture deve conter o trecho removido")

			_, err := nfe.Parse([]byte(mutilado))
			require.Error(t, err)

			var parseErr *nfe.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, caso.elemento, parseErr.Elemento)
		})
	}
}

func TestParse_DhEmiInvalida(t *testing.T) {
	invalido := strings.Replace(xmlCompleto, "2023-08-15T14:30:45-03:00", "15/08/2023 14:30", 1)

	_, err := nfe.Parse([]byte(invalido))
	var parseErr *nfe.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "ide/dhEmi", parseErr.Elemento)
}

func TestParse_XMLMalformado(t *testing.T) {
	_, err := nfe.Parse([]byte("<nfeProc><NFe>"))
	var parseErr *nfe.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParse_ForaDoNamespace(t *testing.T) {
	semNS := strings.Replace(xmlCompleto, ` xmlns="http://www.portalfiscal.inf.br/nfe"`, "", 1)

	_, err := nfe.Parse([]byte(semNS))
	var parseErr *nfe.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "infNFe", parseErr.Elemento)
}

func TestParse_ItemSemProdFicaVazio(t *testing.T) {
	comDetVazio := strings.Replace(xmlCompleto, "</total>", "</total>\n      <det nItem=\"3\"></det>", 1)
	nota, err := nfe.Parse([]byte(comDetVazio))
	require.NoError(t, err)

	require.Len(t, nota.Itens, 3)
	ultimo := nota.Itens[2]
	assert.Equal(t, 3, ultimo.NItem)
	assert.Empty(t, ultimo.XProd)
	assert.Empty(t, ultimo.QCom)
}

func TestParse_DhEmiComOutroOffset(t *testing.T) {
	manaus := strings.Replace(xmlCompleto, "-03:00", "-04:00", 1)
	nota, err := nfe.Parse([]byte(manaus))
	require.NoError(t, err)

	_, offset := nota.Ide.DhEmi.Zone()
	assert.Equal(t, -4*60*60, offset)
	assert.True(t, nota.Ide.DhEmi.Equal(time.Date(2023, 8, 15, 14, 30, 45, 0, time.FixedZone("", -4*3600))))
}
