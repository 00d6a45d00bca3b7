package integracao

import (
	"crypto/md5"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tlourenco/zig-omie-sync/internal/domain/entity"
	domnfe "github.com/tlourenco/zig-omie-sync/internal/domain/nfe"
	domomie "github.com/tlourenco/zig-omie-sync/internal/domain/omie"
	"github.com/tlourenco/zig-omie-sync/internal/infrastructure/ledger"
)

// Constantes fixas do schema do Omie na ausência de integrações externas.
const (
	// emiIDFixo é o id do emissor no cadastro do Omie.
	emiIDFixo = 6029653
	// idProdutoFixo é o placeholder de produto: não há catálogo integrado.
	idProdutoFixo = 13
	// categoriaPagamento é a categoria contábil fixa do pagamento.
	categoriaPagamento = "1.01.03"
	// tipoPagamentoDinheiro liquida o cupom como pagamento em dinheiro.
	tipoPagamentoDinheiro = "DIN"
	// prefixoChave é o prefixo não numérico da chave de acesso ("NFe").
	prefixoChave = "NFe"
	// emiSerialPadrao é usado quando o envelope não traz o serial.
	emiSerialPadrao = "1"
)

// identLoja são os identificadores do Omie específicos de cada loja.
type identLoja struct {
	IDCliente int64
	IDConta   int64
}

// identPorLoja é a tabela fixa de identificadores por nome de loja. Loja
// desconhecida fica com os valores zero, nunca com erro.
var identPorLoja = map[string]identLoja{
	"otro":   {IDCliente: 675944858, IDConta: 3569457062},
	"tratto": {IDCliente: 675944859, IDConta: 7502625278},
}

// Mapper transforma a Nota normalizada no CupomFiscal do Omie, aplicando as
// regras de negócio por loja e os campos computados (fingerprint, separação
// data/hora). Efeito colateral: duas alocações duráveis de sequencial por
// cupom (seqCaixa e seqCupom).
type Mapper struct {
	seq         Sequenciador
	caixaAberto bool
	agora       func() time.Time
}

// NewMapper constrói o mapper. caixaAberto vem do preset de configuração.
func NewMapper(seq Sequenciador, caixaAberto bool) *Mapper {
	return &Mapper{seq: seq, caixaAberto: caixaAberto, agora: time.Now}
}

// Mapear é determinístico sobre (nota, envelope, loja), exceto pelos dois
// sequenciais alocados. Retorna erro apenas quando a alocação de sequencial
// falha (StorageError): nesse caso o cupom inteiro é abortado, nunca enviado
// com números não persistidos.
func (m *Mapper) Mapear(nota *domnfe.Nota, env domnfe.Envelope, loja entity.Loja) (*domomie.CupomFiscal, error) {
	// Canonicalização: entidades HTML desescapadas antes do hash, sempre da
	// mesma forma, para que o mesmo documento fonte produza o mesmo
	// fingerprint independente do escaping aplicado no transporte.
	canonico := html.UnescapeString(env.XML)
	fingerprint := fmt.Sprintf("%x", md5.Sum([]byte(canonico)))

	dia := m.agora()
	seqCaixa, err := m.seq.Proximo(ledger.SeqCaixa, dia)
	if err != nil {
		return nil, fmt.Errorf("alocar seqCaixa: %w", err)
	}
	seqCupom, err := m.seq.Proximo(ledger.SeqCupom, dia)
	if err != nil {
		return nil, fmt.Errorf("alocar seqCupom: %w", err)
	}

	ident := identPorLoja[loja.Nome]

	cupom := &domomie.CupomFiscal{
		NFe: domomie.NFe{
			ChNFe: chaveSemPrefixo(nota.ID),
			// Data e hora no offset do próprio documento, nunca no fuso do
			// processo.
			DEmi:   nota.Ide.DhEmi.Format("02/01/2006"),
			HEmi:   nota.Ide.DhEmi.Format("15:04:05"),
			NNF:    nota.Ide.NNF,
			Serie:  nota.Ide.Serie,
			TpAmb:  ambiente(nota.Ide.TpAmb),
			TpEmis: nota.Ide.TpEmis,
			LCanc:  false,
			Det:    mapearItens(nota.Itens),
			Total: domomie.Total{
				VAcresc:  "0.00",
				VCF:      nota.Total.VNF,
				VDesc:    nota.Total.VDesc,
				VICMS:    nota.Total.VICMS,
				VItem:    nota.Total.VProd,
				VTaxa:    0,
				VTotTrib: nota.Total.VTotTrib,
			},
		},
		Caixa: domomie.Caixa{
			LCxAberto: m.caixaAberto,
			SeqCaixa:  seqCaixa,
			SeqCupom:  seqCupom,
		},
		CupomIdent: domomie.CupomIdent{
			IDCliente:  ident.IDCliente,
			IDProjeto:  0,
			IDVendedor: 0,
		},
		Emissor: domomie.Emissor{
			EmiID:     emiIDFixo,
			EmiNome:   nomeEmissor(nota.Emit.XFant),
			EmiSerial: serial(env),
			EmiVersao: nota.Ide.VerProc,
		},
		FormasPag: []domomie.FormaPag{
			{
				Parcelas:        []domomie.Parcela{},
				LCanc:           false,
				LNaoGerarTitulo: false,
				Pag: domomie.Pag{
					PTaxa:  0,
					VLiq:   nota.Total.VNF,
					VPag:   nota.Total.VNF,
					VTaxa:  0,
					VTroco: 0,
				},
				PagIdent: domomie.PagIdent{
					CCategoria: categoriaPagamento,
					CTipoPag:   tipoPagamentoDinheiro,
					IDConta:    ident.IDConta,
				},
				SeqPag: 1,
			},
		},
		NFCe: domomie.NFCe{
			NfceMd5:  fingerprint,
			NfceProt: nota.NProt,
			NfceXml:  canonico,
		},
	}
	return cupom, nil
}

func mapearItens(itens []domnfe.Item) []domomie.Det {
	dets := make([]domomie.Det, 0, len(itens))
	for _, item := range itens {
		dets = append(dets, domomie.Det{
			LCanc:          false,
			LNaoMovEstoque: false,
			Prod: domomie.Prod{
				CFOP:    item.CFOP,
				NCM:     item.NCM,
				CEAN:    item.CEAN,
				CProd:   item.CProd,
				CUn:     item.UCom,
				NQuant:  parseDecimal(item.QCom),
				VAcresc: decimal.Zero,
				VDesc:   decimal.Zero,
				VItem:   parseDecimal(item.VProd),
				VProd:   parseDecimal(item.VProd),
				VUnit:   parseDecimal(item.VUnCom),
				XProd:   item.XProd,
			},
			ProdIdent: domomie.ProdIdent{
				EmiProduto:     item.CProd,
				IDLocalEstoque: "",
				IDProduto:      idProdutoFixo,
			},
			SeqItem: item.NItem,
		})
	}
	return dets
}

// chaveSemPrefixo remove o prefixo fixo de 3 caracteres da chave de acesso;
// vazia quando o documento não trazia o atributo Id.
func chaveSemPrefixo(id string) string {
	if len(id) <= len(prefixoChave) {
		return ""
	}
	return id[len(prefixoChave):]
}

// ambiente converte o código de ambiente da nota: "1" é produção, qualquer
// outro valor é homologação.
func ambiente(tpAmb string) string {
	if tpAmb == "1" {
		return "P"
	}
	return "H"
}

// nomeEmissor limpa o nome fantasia para exibição no Omie.
func nomeEmissor(xFant string) string {
	nome := strings.ReplaceAll(xFant, "COMERCIO DE ", "")
	return strings.ReplaceAll(nome, " LTDA", "")
}

func serial(env domnfe.Envelope) string {
	if env.EmiSerial == "" {
		return emiSerialPadrao
	}
	return env.EmiSerial
}

// parseDecimal é best-effort: valores ausentes ou malformados viram zero,
// espelhando a tolerância do parser a subcampos de item ausentes.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
