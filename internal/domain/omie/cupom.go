// Tipos do cupom fiscal do Omie ERP (chamada IncluirNfce da API
// produtos/cupomfiscalincluir). Os nomes JSON seguem o schema do Omie.
package omie

import "github.com/shopspring/decimal"

func init() {
	// O Omie espera montantes como números JSON, não como strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// CupomFiscal é o registro de venda enviado ao Omie: a NF-e mapeada mais os
// identificadores específicos da loja (idCliente, idConta) e os dois
// sequenciais diários alocados (seqCaixa, seqCupom).
type CupomFiscal struct {
	NFe        NFe        `json:"NFe"`
	Caixa      Caixa      `json:"caixa"`
	CupomIdent CupomIdent `json:"cupomIdent"`
	Emissor    Emissor    `json:"emissor"`
	FormasPag  []FormaPag `json:"formasPag"`
	NFCe       NFCe       `json:"nfce"`
}

// Fingerprint devolve a impressão digital de conteúdo do cupom: o MD5 do XML
// fonte canonicalizado. É função pura dos bytes do documento; serve à
// deduplicação, não a controle de segurança.
func (c *CupomFiscal) Fingerprint() string {
	return c.NFCe.NfceMd5
}

// ChaveNFe devolve a chave de acesso sem o prefixo (vazia quando o documento
// fonte não trazia o atributo Id).
func (c *CupomFiscal) ChaveNFe() string {
	return c.NFe.ChNFe
}

// NFe é a cabeça da nota no schema do Omie.
type NFe struct {
	ChNFe  string `json:"chNFe"`
	DEmi   string `json:"dEmi"` // dd/mm/aaaa no offset do documento
	HEmi   string `json:"hEmi"` // hh:mm:ss no offset do documento
	NNF    string `json:"nNF"`
	Serie  string `json:"serie"`
	TpAmb  string `json:"tpAmb"` // "P" produção, "H" homologação
	TpEmis string `json:"tpEmis"`
	LCanc  bool   `json:"lCanc"`
	Det    []Det  `json:"det"`
	Total  Total  `json:"total"`
}

// Total carrega os totais como strings decimais exatas copiadas da nota.
// vAcresc e vTaxa são placeholders fixos exigidos pelo schema.
type Total struct {
	VAcresc  string `json:"vAcresc"`
	VCF      string `json:"vCF"`
	VDesc    string `json:"vDesc"`
	VICMS    string `json:"vICMS"`
	VItem    string `json:"vItem"`
	VTaxa    int    `json:"vTaxa"`
	VTotTrib string `json:"vTotTrib"`
}

// Det é uma linha de item do cupom.
type Det struct {
	LCanc          bool      `json:"lCanc"`
	LNaoMovEstoque bool      `json:"lNaoMovEstoque"`
	Prod           Prod      `json:"prod"`
	ProdIdent      ProdIdent `json:"prodIdent"`
	SeqItem        int       `json:"seqItem"`
}

// Prod são os dados do produto da linha; quantidades e valores viram decimal.
type Prod struct {
	CFOP    string          `json:"CFOP"`
	NCM     string          `json:"NCM"`
	CEAN    string          `json:"cEAN"`
	CProd   string          `json:"cProd"`
	CUn     string          `json:"cUn"`
	NQuant  decimal.Decimal `json:"nQuant"`
	VAcresc decimal.Decimal `json:"vAcresc"`
	VDesc   decimal.Decimal `json:"vDesc"`
	VItem   decimal.Decimal `json:"vItem"`
	VProd   decimal.Decimal `json:"vProd"`
	VUnit   decimal.Decimal `json:"vUnit"`
	XProd   string          `json:"xProd"`
}

// ProdIdent identifica o produto no cadastro do Omie. IDProduto é um
// placeholder fixo: não há integração com catálogo de produtos (limitação
// documentada, não um lookup real).
type ProdIdent struct {
	EmiProduto     string `json:"emiProduto"`
	IDLocalEstoque string `json:"idLocalEstoque"`
	IDProduto      int64  `json:"idProduto"`
}

// Caixa carrega os dois sequenciais diários alocados.
type Caixa struct {
	LCxAberto bool `json:"lCxAberto"`
	SeqCaixa  int  `json:"seqCaixa"`
	SeqCupom  int  `json:"seqCupom"`
}

// CupomIdent identifica o cliente da loja no Omie; zero quando a loja não
// consta na tabela de identificadores.
type CupomIdent struct {
	IDCliente  int64 `json:"idCliente"`
	IDProjeto  int64 `json:"idProjeto"`
	IDVendedor int64 `json:"idVendedor"`
}

// Emissor identifica o emissor do cupom.
type Emissor struct {
	EmiID     int64  `json:"emiId"`
	EmiNome   string `json:"emiNome"`
	EmiSerial string `json:"emiSerial"`
	EmiVersao string `json:"emiVersao"`
}

// FormaPag é a forma de pagamento sintética: uma única linha sem parcelas
// que liquida o total da nota em dinheiro.
type FormaPag struct {
	Parcelas        []Parcela `json:"Parcelas"`
	TEF             struct{}  `json:"TEF"`
	LCanc           bool      `json:"lCanc"`
	LNaoGerarTitulo bool      `json:"lNaoGerarTitulo"`
	Pag             Pag       `json:"pag"`
	PagIdent        PagIdent  `json:"pagIdent"`
	SeqPag          int       `json:"seqPag"`
}

// Parcela existe apenas para completar o schema; nunca é preenchida.
type Parcela struct {
	NDias   int    `json:"nDias"`
	DVenc   string `json:"dVenc"`
	NParc   int    `json:"nParc"`
	VParc   string `json:"vParc"`
	PercPag string `json:"percPag"`
}

// Pag carrega os valores do pagamento; vLiq e vPag são a string exata do
// total da nota.
type Pag struct {
	PTaxa  int    `json:"pTaxa"`
	VLiq   string `json:"vLiq"`
	VPag   string `json:"vPag"`
	VTaxa  int    `json:"vTaxa"`
	VTroco int    `json:"vTroco"`
}

// PagIdent amarra o pagamento à conta corrente da loja e à categoria fixa.
type PagIdent struct {
	CCategoria string `json:"cCategoria"`
	CTipoPag   string `json:"cTipoPag"`
	IDConta    int64  `json:"idConta"`
}

// NFCe carrega o XML fonte e sua impressão digital MD5. NfceXml e NfceMd5
// são calculados sobre o mesmo XML canonicalizado (entidades HTML
// desescapadas), de modo que documentos idênticos sempre produzem o mesmo
// fingerprint independente do escaping aplicado no transporte.
type NFCe struct {
	NfceMd5  string `json:"nfceMd5"`
	NfceProt string `json:"nfceProt"`
	NfceXml  string `json:"nfceXml"`
}
