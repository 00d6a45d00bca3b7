// Parser do XML de NF-e/NFC-e (schema do Portal Fiscal) para a
// representação normalizada do domínio. A extração é puramente estrutural;
// o único cômputo é o parse de dhEmi, que preserva o offset do documento.
package nfe

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	domnfe "github.com/tlourenco/zig-omie-sync/internal/domain/nfe"
)

// NamespaceNFe é o namespace fixo do schema de NF-e/NFC-e. Elementos fora
// dele são ignorados.
const NamespaceNFe = "http://www.portalfiscal.inf.br/nfe"

// layoutDhEmi é o formato de dhEmi: data + hora + offset UTC combinados.
const layoutDhEmi = "2006-01-02T15:04:05-07:00"

// ParseError indica XML malformado ou fora do shape esperado: raiz sem o
// elemento infNFe no namespace, ou campo obrigatório ausente. Apenas os
// blocos de identificação, emitente e totais são obrigatórios; subcampos de
// item são best-effort.
type ParseError struct {
	Elemento string
	Motivo   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("nfe: %s: %s", e.Elemento, e.Motivo)
}

// Parse extrai a Nota normalizada dos bytes do XML.
func Parse(xmlBytes []byte) (*domnfe.Nota, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, &ParseError{Elemento: "documento", Motivo: err.Error()}
	}
	raiz := doc.Root()
	if raiz == nil {
		return nil, &ParseError{Elemento: "documento", Motivo: "XML vazio"}
	}

	infNFe := buscarDescendente(raiz, "infNFe")
	if infNFe == nil {
		return nil, &ParseError{Elemento: "infNFe", Motivo: "elemento não encontrado no namespace " + NamespaceNFe}
	}

	nota := &domnfe.Nota{
		ID:     infNFe.SelectAttrValue("Id", ""),
		Versao: infNFe.SelectAttrValue("versao", ""),
	}

	if err := parseIde(infNFe, nota); err != nil {
		return nil, err
	}
	if err := parseEmit(infNFe, nota); err != nil {
		return nil, err
	}
	if err := parseTotal(infNFe, nota); err != nil {
		return nil, err
	}
	parseItens(infNFe, nota)

	// O protocolo de autorização fica fora da subárvore da nota (em
	// <protNFe>/<infProt>), então a busca cobre o documento inteiro.
	if infProt := buscarDescendente(raiz, "infProt"); infProt != nil {
		nota.NProt = textoFilho(infProt, "nProt")
	}

	return nota, nil
}

func parseIde(infNFe *etree.Element, nota *domnfe.Nota) error {
	ide := filhoNS(infNFe, "ide")
	if ide == nil {
		return &ParseError{Elemento: "ide", Motivo: "bloco obrigatório ausente"}
	}

	obrigatorios := map[string]*string{
		"serie":  &nota.Ide.Serie,
		"nNF":    &nota.Ide.NNF,
		"tpAmb":  &nota.Ide.TpAmb,
		"tpEmis": &nota.Ide.TpEmis,
	}
	for tag, destino := range obrigatorios {
		filho := filhoNS(ide, tag)
		if filho == nil {
			return &ParseError{Elemento: "ide/" + tag, Motivo: "campo obrigatório ausente"}
		}
		*destino = strings.TrimSpace(filho.Text())
	}

	dhEmi := textoFilho(ide, "dhEmi")
	if dhEmi == "" {
		return &ParseError{Elemento: "ide/dhEmi", Motivo: "campo obrigatório ausente"}
	}
	emitidaEm, err := time.Parse(layoutDhEmi, dhEmi)
	if err != nil {
		return &ParseError{Elemento: "ide/dhEmi", Motivo: "data de emissão inválida: " + dhEmi}
	}
	nota.Ide.DhEmi = emitidaEm

	nota.Ide.CUF = textoFilho(ide, "cUF")
	nota.Ide.CNF = textoFilho(ide, "cNF")
	nota.Ide.NatOp = textoFilho(ide, "natOp")
	nota.Ide.Mod = textoFilho(ide, "mod")
	nota.Ide.TpNF = textoFilho(ide, "tpNF")
	nota.Ide.VerProc = textoFilho(ide, "verProc")
	return nil
}

func parseEmit(infNFe *etree.Element, nota *domnfe.Nota) error {
	emit := filhoNS(infNFe, "emit")
	if emit == nil {
		return &ParseError{Elemento: "emit", Motivo: "bloco obrigatório ausente"}
	}
	xNome := filhoNS(emit, "xNome")
	if xNome == nil {
		return &ParseError{Elemento: "emit/xNome", Motivo: "campo obrigatório ausente"}
	}
	xFant := filhoNS(emit, "xFant")
	if xFant == nil {
		return &ParseError{Elemento: "emit/xFant", Motivo: "campo obrigatório ausente"}
	}
	nota.Emit.XNome = strings.TrimSpace(xNome.Text())
	nota.Emit.XFant = strings.TrimSpace(xFant.Text())
	nota.Emit.CNPJ = textoFilho(emit, "CNPJ")
	nota.Emit.IE = textoFilho(emit, "IE")
	nota.Emit.CRT = textoFilho(emit, "CRT")
	return nil
}

func parseTotal(infNFe *etree.Element, nota *domnfe.Nota) error {
	total := filhoNS(infNFe, "total")
	if total == nil {
		return &ParseError{Elemento: "total", Motivo: "bloco obrigatório ausente"}
	}
	icmsTot := filhoNS(total, "ICMSTot")
	if icmsTot == nil {
		return &ParseError{Elemento: "total/ICMSTot", Motivo: "bloco obrigatório ausente"}
	}

	obrigatorios := map[string]*string{
		"vProd":    &nota.Total.VProd,
		"vICMS":    &nota.Total.VICMS,
		"vDesc":    &nota.Total.VDesc,
		"vNF":      &nota.Total.VNF,
		"vTotTrib": &nota.Total.VTotTrib,
	}
	for tag, destino := range obrigatorios {
		filho := filhoNS(icmsTot, tag)
		if filho == nil {
			return &ParseError{Elemento: "total/ICMSTot/" + tag, Motivo: "campo obrigatório ausente"}
		}
		*destino = strings.TrimSpace(filho.Text())
	}
	return nil
}

// parseItens extrai as linhas <det> na ordem do documento. Subcampos
// ausentes ficam vazios, nunca derrubam o parse.
func parseItens(infNFe *etree.Element, nota *domnfe.Nota) {
	dets := filhosNS(infNFe, "det")
	nota.Itens = make([]domnfe.Item, 0, len(dets))
	for i, det := range dets {
		item := domnfe.Item{NItem: i + 1}
		if n, err := strconv.Atoi(det.SelectAttrValue("nItem", "")); err == nil {
			item.NItem = n
		}
		if prod := filhoNS(det, "prod"); prod != nil {
			item.CProd = textoFilho(prod, "cProd")
			item.CEAN = textoFilho(prod, "cEAN")
			item.XProd = textoFilho(prod, "xProd")
			item.NCM = textoFilho(prod, "NCM")
			item.CFOP = textoFilho(prod, "CFOP")
			item.UCom = textoFilho(prod, "uCom")
			item.QCom = textoFilho(prod, "qCom")
			item.VUnCom = textoFilho(prod, "vUnCom")
			item.VProd = textoFilho(prod, "vProd")
		}
		nota.Itens = append(nota.Itens, item)
	}
}

// ── helpers de navegação com namespace ────────────────────────────────────────

func filhoNS(e *etree.Element, tag string) *etree.Element {
	for _, filho := range e.ChildElements() {
		if filho.Tag == tag && filho.NamespaceURI() == NamespaceNFe {
			return filho
		}
	}
	return nil
}

func filhosNS(e *etree.Element, tag string) []*etree.Element {
	var filhos []*etree.Element
	for _, filho := range e.ChildElements() {
		if filho.Tag == tag && filho.NamespaceURI() == NamespaceNFe {
			filhos = append(filhos, filho)
		}
	}
	return filhos
}

func textoFilho(e *etree.Element, tag string) string {
	if filho := filhoNS(e, tag); filho != nil {
		return strings.TrimSpace(filho.Text())
	}
	return ""
}

// buscarDescendente faz busca em profundidade por tag dentro do namespace,
// incluindo o próprio elemento de partida.
func buscarDescendente(e *etree.Element, tag string) *etree.Element {
	if e.Tag == tag && e.NamespaceURI() == NamespaceNFe {
		return e
	}
	for _, filho := range e.ChildElements() {
		if achado := buscarDescendente(filho, tag); achado != nil {
			return achado
		}
	}
	return nil
}
