// Cliente da API de integração ERP da Zig (upstream de notas fiscais).
package zig

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tlourenco/zig-omie-sync/internal/domain/entity"
	domnfe "github.com/tlourenco/zig-omie-sync/internal/domain/nfe"
)

// BaseURLPadrao é o endpoint de produção da API de integração da Zig.
const BaseURLPadrao = "https://api.zigcore.com.br/integration/erp/invoice"

// FetchError indica upstream inacessível ou resposta não-2xx. A execução da
// loja é abortada; nada é reprocessado dentro da mesma execução.
type FetchError struct {
	Loja   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("zig: loja %s: %v", e.Loja, e.Err)
	}
	return fmt.Sprintf("zig: loja %s: status inesperado %d", e.Loja, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// BuscadorNotas define o porto de entrada de notas. A implementação
// concreta usa a API HTTP da Zig; para testes injeta-se um fake.
type BuscadorNotas interface {
	// BuscarNotas devolve os envelopes da loja no intervalo [de, ate],
	// na página dada.
	BuscarNotas(ctx context.Context, loja entity.Loja, de, ate time.Time, pagina int) ([]domnfe.Envelope, error)
}

// Client implementa BuscadorNotas sobre net/http.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient constrói o cliente com timeout de rede próprio; o prazo da
// execução continua valendo via contexto.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = BaseURLPadrao
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
	}
}

// BuscarNotas monta a query dtinicio/dtfim/loja/page com o token da loja no
// header Authorization.
func (c *Client) BuscarNotas(ctx context.Context, loja entity.Loja, de, ate time.Time, pagina int) ([]domnfe.Envelope, error) {
	q := url.Values{}
	q.Set("dtinicio", de.Format("2006-01-02"))
	q.Set("dtfim", ate.Format("2006-01-02"))
	q.Set("loja", loja.ZigRede)
	q.Set("page", fmt.Sprintf("%d", pagina))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Loja: loja.Nome, Err: err}
	}
	req.Header.Set("Authorization", loja.ZigToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Loja: loja.Nome, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Loja: loja.Nome, Status: resp.StatusCode}
	}

	corpo, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, &FetchError{Loja: loja.Nome, Err: err}
	}

	var envelopes []domnfe.Envelope
	if err := json.Unmarshal(corpo, &envelopes); err != nil {
		return nil, &FetchError{Loja: loja.Nome, Err: fmt.Errorf("decodificar resposta: %w", err)}
	}
	return envelopes, nil
}
