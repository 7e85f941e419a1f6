package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("registro nao encontrado")
	// ErrIO indica falha de durabilidade no armazém local (indisponível, cota excedida).
	ErrIO                 = errors.New("falha no armazenamento local")
	ErrPreconditionFailed = errors.New("pre-condicao nao atendida")
)

type TipoErroRemoto string

const (
	ErroRede      TipoErroRemoto = "network"
	ErroValidacao TipoErroRemoto = "validation"
	ErroNotFound  TipoErroRemoto = "notFound"
)

// RemoteError classifica as falhas do backend remoto para o coordenador decidir se tenta de novo.
type RemoteError struct {
	Tipo     TipoErroRemoto
	Operacao string
	Status   int
	Err      error
}

func NovoErroRemoto(tipo TipoErroRemoto, operacao string, err error) *RemoteError {
	return &RemoteError{Tipo: tipo, Operacao: operacao, Err: err}
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("remoto %s (%s)", e.Operacao, e.Tipo)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s status=%d", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// TipoErro devolve a classe do erro remoto; erros não classificados contam como falha de rede.
func TipoErro(err error) TipoErroRemoto {
	var remoto *RemoteError
	if errors.As(err, &remoto) {
		return remoto.Tipo
	}
	return ErroRede
}

func ErroRetentavel(err error) bool {
	return err != nil && TipoErro(err) == ErroRede
}

// PreconditionFailedError é devolvido quando um card não pode ser finalizado.
type PreconditionFailedError struct {
	Categoria CategoriaKanban
	Faltantes []string
}

func (e *PreconditionFailedError) Error() string {
	return fmt.Sprintf("checklist incompleto para %s: faltam %s", e.Categoria, strings.Join(e.Faltantes, ", "))
}

func (e *PreconditionFailedError) Is(target error) bool {
	return target == ErrPreconditionFailed
}
