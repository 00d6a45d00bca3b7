package ledger

import (
	"encoding/json"
	"time"
)

// Tipos de sequencial emitidos por dia.
const (
	SeqCaixa = "seqCaixa"
	SeqCupom = "seqCupom"
)

// chaveSequenciais é a chave do documento JSON dia -> contadores no Store.
const chaveSequenciais = "sequenciais.json"

// contadores são os dois contadores de um dia. Um dia sem entrada começa
// ambos em zero; a primeira alocação devolve 1.
type contadores struct {
	SeqCaixa int `json:"seqCaixa"`
	SeqCupom int `json:"seqCupom"`
}

// Sequenciador emite sequenciais monotônicos por (dia, tipo), persistidos a
// cada alocação. A escrita completa antes do valor ser entregue ao chamador:
// queda-e-reinício nunca repete um número já emitido, ao custo de possíveis
// lacunas quando o processo cai depois de persistir e antes de usar.
//
// Sem lock interno: o pipeline é sequencial por desenho (uma execução ativa
// por vez sobre os ledgers compartilhados).
type Sequenciador struct {
	store Store
}

// NewSequenciador constrói o alocador sobre o Store dado.
func NewSequenciador(store Store) *Sequenciador {
	return &Sequenciador{store: store}
}

// Proximo aloca o próximo sequencial do tipo para o dia. Primeira alocação
// de um par (dia, tipo) nunca visto devolve 1; N chamadas sequenciais
// devolvem 1..N sem repetição nem lacuna.
func (s *Sequenciador) Proximo(tipo string, dia time.Time) (int, error) {
	dados, err := s.carregar()
	if err != nil {
		return 0, err
	}

	chave := dia.Format("2006-01-02")
	c := dados[chave]
	var proximo int
	switch tipo {
	case SeqCaixa:
		c.SeqCaixa++
		proximo = c.SeqCaixa
	case SeqCupom:
		c.SeqCupom++
		proximo = c.SeqCupom
	default:
		return 0, &StorageError{Op: "alocar sequencial", Err: errTipoDesconhecido(tipo)}
	}
	dados[chave] = c

	if err := s.persistir(dados); err != nil {
		return 0, err
	}
	return proximo, nil
}

func (s *Sequenciador) carregar() (map[string]contadores, error) {
	bruto, ok, err := s.store.Get(chaveSequenciais)
	if err != nil {
		return nil, err
	}
	dados := make(map[string]contadores)
	if !ok {
		// Primeira execução: começa vazio.
		return dados, nil
	}
	if err := json.Unmarshal(bruto, &dados); err != nil {
		return nil, &StorageError{Op: "decodificar " + chaveSequenciais, Err: err}
	}
	return dados, nil
}

func (s *Sequenciador) persistir(dados map[string]contadores) error {
	bruto, err := json.Marshal(dados)
	if err != nil {
		return &StorageError{Op: "codificar " + chaveSequenciais, Err: err}
	}
	return s.store.Put(chaveSequenciais, bruto)
}

type errTipoDesconhecido string

func (e errTipoDesconhecido) Error() string {
	return "tipo de sequencial desconhecido: " + string(e)
}
