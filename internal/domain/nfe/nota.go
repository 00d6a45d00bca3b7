package nfe

import "time"

// Envelope é o documento cru devolvido pela API de integração da Zig:
// o XML da NFC-e tal como veio do provedor mais, opcionalmente, o serial
// do emissor. Imutável depois de buscado.
type Envelope struct {
	XML       string `json:"xml"`
	EmiSerial string `json:"emiSerial,omitempty"`
}

// Nota é a representação normalizada de uma NF-e/NFC-e autorizada.
// Os montantes monetários são mantidos como as strings decimais exatas do
// documento fonte (nunca float64) para não introduzir desvio de
// arredondamento de moeda.
type Nota struct {
	// ID é o atributo Id de <infNFe>: a chave de acesso com o prefixo "NFe".
	ID     string
	Versao string

	Ide   Identificacao
	Emit  Emitente
	Total Totais
	Itens []Item

	// NProt é o protocolo de autorização (<infProt>/<nProt>). Opcional:
	// documentos sem protocolo são válidos e mapeiam com o campo vazio.
	NProt string
}

// Identificacao agrupa o bloco <ide> da nota.
type Identificacao struct {
	CUF   string
	CNF   string
	NatOp string
	Mod   string
	Serie string
	NNF   string
	// DhEmi preserva o offset UTC do próprio documento (dhEmi vem como
	// "2024-12-02T14:30:00-03:00"); a separação em data/hora locais é feita
	// no mapeamento, nunca com o fuso do processo.
	DhEmi   time.Time
	TpNF    string
	TpAmb   string
	TpEmis  string
	VerProc string
}

// Emitente agrupa o bloco <emit>: nome fantasia, razão social e registro fiscal.
type Emitente struct {
	CNPJ  string
	XNome string
	XFant string
	IE    string
	CRT   string
}

// Totais agrupa <total>/<ICMSTot> como strings decimais exatas.
type Totais struct {
	VProd    string // valor total dos produtos
	VICMS    string // valor total do ICMS
	VDesc    string // valor total de desconto
	VNF      string // valor total da nota
	VTotTrib string // estimativa total de tributos
}

// Item é uma linha <det> da nota. NItem é o índice 1-based do documento
// fonte (atributo nItem), nunca reatribuído; a ordem do slice Itens segue a
// ordem do documento. Subcampos opcionais ausentes ficam com o valor zero.
type Item struct {
	NItem  int
	CProd  string
	CEAN   string
	XProd  string
	NCM    string
	CFOP   string
	UCom   string
	QCom   string
	VUnCom string
	VProd  string
}
