// Ledgers duráveis do pipeline: o contador de sequenciais diários e o log
// de fingerprints já entregues. O armazenamento fica atrás de uma interface
// chave-valor explícita para que o backend (arquivo plano, KV embutido)
// seja trocável sem tocar na lógica do pipeline.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StorageError indica falha de leitura ou escrita no ledger persistido.
// É fatal para a nota corrente: o chamador deve abortar o processamento em
// vez de atribuir sequenciais não persistidos ou pular a checagem de
// deduplicação.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store é o porto de armazenamento chave-valor dos ledgers.
type Store interface {
	// Get devolve o valor da chave; ok=false quando a chave nunca foi
	// escrita (bootstrap de primeira execução, não é erro).
	Get(chave string) (valor []byte, ok bool, err error)
	// Put grava o valor de forma durável; precisa completar antes de
	// retornar.
	Put(chave string, valor []byte) error
	// Append acrescenta uma linha ao valor da chave (log delimitado por
	// quebras de linha).
	Append(chave, linha string) error
	// Linhas devolve as linhas não vazias do valor da chave.
	Linhas(chave string) ([]string, error)
}

// FileStore implementa Store com um arquivo por chave dentro de um
// diretório. Put é atômico (arquivo temporário + rename) para que uma queda
// no meio da escrita nunca deixe o ledger truncado.
type FileStore struct {
	dir string
}

// NewFileStore cria o diretório se necessário e devolve o store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "criar diretório " + dir, Err: err}
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) caminho(chave string) string {
	return filepath.Join(s.dir, chave)
}

func (s *FileStore) Get(chave string) ([]byte, bool, error) {
	dados, err := os.ReadFile(s.caminho(chave))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &StorageError{Op: "ler " + chave, Err: err}
	}
	return dados, true, nil
}

func (s *FileStore) Put(chave string, valor []byte) error {
	tmp := s.caminho(chave) + ".tmp"
	if err := os.WriteFile(tmp, valor, 0o644); err != nil {
		return &StorageError{Op: "gravar " + chave, Err: err}
	}
	if err := os.Rename(tmp, s.caminho(chave)); err != nil {
		return &StorageError{Op: "gravar " + chave, Err: err}
	}
	return nil
}

func (s *FileStore) Append(chave, linha string) error {
	f, err := os.OpenFile(s.caminho(chave), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &StorageError{Op: "abrir " + chave, Err: err}
	}
	defer f.Close()
	if _, err := f.WriteString(linha + "\n"); err != nil {
		return &StorageError{Op: "acrescentar em " + chave, Err: err}
	}
	if err := f.Sync(); err != nil {
		return &StorageError{Op: "sincronizar " + chave, Err: err}
	}
	return nil
}

func (s *FileStore) Linhas(chave string) ([]string, error) {
	dados, ok, err := s.Get(chave)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var linhas []string
	for _, l := range strings.Split(string(dados), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			linhas = append(linhas, l)
		}
	}
	return linhas, nil
}
