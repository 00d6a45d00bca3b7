package domain

import "errors"

// Erros de domínio (sem dependências externas).
var (
	// ErrCupomDuplicado: o Omie já possui o cupom (faultcode de duplicidade).
	// O sistema remoto é autoridade secundária de deduplicação; tratar como
	// equivalente a sucesso, sem escrita no ledger.
	ErrCupomDuplicado = errors.New("cupom fiscal já incluído no Omie")

	// ErrExecucaoEmAndamento: já existe uma execução ativa para a loja;
	// execuções sobrepostas corromperiam os ledgers compartilhados.
	ErrExecucaoEmAndamento = errors.New("execução já em andamento para a loja")
)
