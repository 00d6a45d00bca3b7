// Cliente da API do Omie ERP (entrega de cupons fiscais).
package omie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tlourenco/zig-omie-sync/internal/domain"
	"github.com/tlourenco/zig-omie-sync/internal/domain/entity"
	domomie "github.com/tlourenco/zig-omie-sync/internal/domain/omie"
)

const (
	// BaseURLPadrao é o endpoint de inclusão de cupom fiscal do Omie.
	BaseURLPadrao = "https://app.omie.com.br/api/v1/produtos/cupomfiscalincluir/"

	// chamadaIncluirNfce é o nome da operação no corpo JSON-RPC do Omie.
	chamadaIncluirNfce = "IncluirNfce"

	// faultcodeDuplicado é o código de falha aplicacional que significa
	// "cupom já existe no servidor".
	faultcodeDuplicado = "SOAP-ENV:Client-3333"
)

// DeliveryError indica rejeição do Omie ou falha de transporte. O ledger de
// entregas não é atualizado, então a próxima execução tenta de novo o mesmo
// fingerprint.
type DeliveryError struct {
	Loja      string
	Faultcode string
	Status    int
	Err       error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Faultcode != "":
		return fmt.Sprintf("omie: loja %s: fault %s: %v", e.Loja, e.Faultcode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("omie: loja %s: %v", e.Loja, e.Err)
	default:
		return fmt.Sprintf("omie: loja %s: status inesperado %d", e.Loja, e.Status)
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IncluidorCupom define o porto de saída da entrega. Implementações devolvem
// domain.ErrCupomDuplicado (embrulhado) quando o Omie responde o faultcode de
// duplicidade; o gate trata esse caso como sucesso sem escrita no ledger.
type IncluidorCupom interface {
	IncluirCupom(ctx context.Context, loja entity.Loja, cupom *domomie.CupomFiscal) error
}

// Client implementa IncluidorCupom sobre net/http.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient constrói o cliente com timeout de rede generoso; o Omie pode
// demorar vários segundos para incluir um cupom.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = BaseURLPadrao
	}
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    baseURL,
	}
}

// corpoIncluir é o corpo JSON-RPC da chamada IncluirNfce.
type corpoIncluir struct {
	Call      string                 `json:"call"`
	AppKey    string                 `json:"app_key"`
	AppSecret string                 `json:"app_secret"`
	Param     []*domomie.CupomFiscal `json:"param"`
}

// respostaOmie carrega os campos de falha aplicacional; faultcode é
// inspecionado antes do status HTTP.
type respostaOmie struct {
	Faultcode   string `json:"faultcode"`
	Faultstring string `json:"faultstring"`
}

// IncluirCupom envia o cupom com as credenciais da loja e interpreta a
// resposta do Omie.
func (c *Client) IncluirCupom(ctx context.Context, loja entity.Loja, cupom *domomie.CupomFiscal) error {
	corpo, err := json.Marshal(corpoIncluir{
		Call:      chamadaIncluirNfce,
		AppKey:    loja.OmieAppKey,
		AppSecret: loja.OmieAppSecret,
		Param:     []*domomie.CupomFiscal{cupom},
	})
	if err != nil {
		return &DeliveryError{Loja: loja.Nome, Err: fmt.Errorf("codificar cupom: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(corpo))
	if err != nil {
		return &DeliveryError{Loja: loja.Nome, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Loja: loja.Nome, Err: err}
	}
	defer resp.Body.Close()

	bruto, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &DeliveryError{Loja: loja.Nome, Err: fmt.Errorf("ler resposta: %w", err)}
	}

	// O faultcode aplicacional vem antes do status HTTP: o Omie responde
	// faltas com 500 mas o código é que diz o que aconteceu.
	var r respostaOmie
	if err := json.Unmarshal(bruto, &r); err == nil && r.Faultcode != "" {
		if r.Faultcode == faultcodeDuplicado {
			return fmt.Errorf("%w: %s", domain.ErrCupomDuplicado, r.Faultstring)
		}
		return &DeliveryError{
			Loja:      loja.Nome,
			Faultcode: r.Faultcode,
			Err:       fmt.Errorf("%s", r.Faultstring),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return &DeliveryError{Loja: loja.Nome, Status: resp.StatusCode}
	}
	return nil
}
