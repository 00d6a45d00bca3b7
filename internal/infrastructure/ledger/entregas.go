package ledger

// chaveEntregas é a chave do log de fingerprints já entregues (uma por
// linha, append-only).
const chaveEntregas = "nfce_processadas.txt"

// RegistroEntregas é o ledger durável de fingerprints confirmados como
// entregues ao Omie. Append-only; a escrita só acontece depois do sucesso
// confirmado da entrega, nunca antes: uma entrega que falha deixa o ledger
// intocado e a nota elegível para nova tentativa na próxima execução.
type RegistroEntregas struct {
	store Store
}

// NewRegistroEntregas constrói o registro sobre o Store dado.
func NewRegistroEntregas(store Store) *RegistroEntregas {
	return &RegistroEntregas{store: store}
}

// JaEntregue consulta se o fingerprint já foi confirmado como entregue.
func (r *RegistroEntregas) JaEntregue(fingerprint string) (bool, error) {
	linhas, err := r.store.Linhas(chaveEntregas)
	if err != nil {
		return false, err
	}
	for _, l := range linhas {
		if l == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

// Registrar grava o fingerprint como entregue.
func (r *RegistroEntregas) Registrar(fingerprint string) error {
	return r.store.Append(chaveEntregas, fingerprint)
}
