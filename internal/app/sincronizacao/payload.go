package sincronizacao

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var errPayloadInvalido = errors.New("payload nao e um objeto JSON")

// camposSoDoCliente nunca vão para o backend: a categoria do item e as coleções aninhadas da ronda.
var camposSoDoCliente = []string{"categoria", "areas_tecnicas", "fotos_ronda", "outros_itens_corrigidos"}

// prepararPayload remove o que o backend não conhece. removerID vale para ids provisórios
// (o backend atribui o definitivo) e para atualizações (o id vai na rota).
func prepararPayload(payload json.RawMessage, removerID bool) (json.RawMessage, error) {
	if !gjson.ValidBytes(payload) || !gjson.ParseBytes(payload).IsObject() {
		return nil, errPayloadInvalido
	}

	resultado := []byte(payload)
	campos := camposSoDoCliente
	if removerID {
		campos = append([]string{"id"}, campos...)
	}
	for _, campo := range campos {
		if !gjson.GetBytes(resultado, campo).Exists() {
			continue
		}
		var err error
		resultado, err = sjson.DeleteBytes(resultado, campo)
		if err != nil {
			return nil, err
		}
	}
	return json.RawMessage(resultado), nil
}

// mesclar sobrepõe cada campo do registro remoto ao local; campos só locais permanecem.
func mesclar(local, remoto json.RawMessage) (json.RawMessage, error) {
	if !gjson.ParseBytes(remoto).IsObject() {
		return nil, errPayloadInvalido
	}
	resultado := []byte(local)
	var errMescla error
	gjson.ParseBytes(remoto).ForEach(func(chave, valor gjson.Result) bool {
		resultado, errMescla = sjson.SetRawBytes(resultado, chave.String(), []byte(valor.Raw))
		return errMescla == nil
	})
	if errMescla != nil {
		return nil, errMescla
	}
	return json.RawMessage(resultado), nil
}

func definirCampo(registro json.RawMessage, campo, valor string) (json.RawMessage, error) {
	resultado, err := sjson.SetBytes(registro, campo, valor)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resultado), nil
}
