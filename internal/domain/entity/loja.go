package entity

// Loja é o perfil estático de uma loja: nome, credenciais da API Zig e do
// Omie e o centro de custo. Construída uma única vez na partida do processo
// a partir das variáveis de ambiente; imutável durante a vida do processo.
type Loja struct {
	Nome          string
	ZigToken      string
	ZigRede       string
	OmieAppKey    string
	OmieAppSecret string
	CentroCusto   string
}
