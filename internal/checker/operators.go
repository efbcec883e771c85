package checker

import (
	"github.com/vivscript/vivc/internal/lexer"
	"github.com/vivscript/vivc/internal/types"
)

// operatorShape describes an operator signature. A nil slot stands for a
// type variable that is instantiated fresh at every use.
type operatorShape struct {
	operand types.Type
	result  types.Type
}

var binaryOperators = map[lexer.TokenType]operatorShape{
	lexer.PLUS:     {types.TypeNum, types.TypeNum},
	lexer.MINUS:    {types.TypeNum, types.TypeNum},
	lexer.ASTERISK: {types.TypeNum, types.TypeNum},
	lexer.SLASH:    {types.TypeNum, types.TypeNum},
	lexer.PERCENT:  {types.TypeNum, types.TypeNum},

	lexer.LT: {types.TypeNum, types.TypeBool},
	lexer.LE: {types.TypeNum, types.TypeBool},
	lexer.GT: {types.TypeNum, types.TypeBool},
	lexer.GE: {types.TypeNum, types.TypeBool},

	lexer.EQ:     {nil, types.TypeBool},
	lexer.NOT_EQ: {nil, types.TypeBool},

	lexer.AND: {types.TypeBool, types.TypeBool},
	lexer.OR:  {types.TypeBool, types.TypeBool},
}

var unaryOperators = map[lexer.TokenType]operatorShape{
	lexer.MINUS: {types.TypeNum, types.TypeNum},
	lexer.BANG:  {types.TypeBool, types.TypeBool},
}

// instantiate returns a fresh copy of the signature of op.
// Unknown operators get a fully open signature.
func instantiate(u *types.Unifier, op lexer.TokenType, arity int) *types.Function {
	table := binaryOperators
	if arity == 1 {
		table = unaryOperators
	}

	shape, ok := table[op]
	if !ok {
		shape = operatorShape{}
	}

	operand := shape.operand
	if operand == nil {
		operand = u.Fresh()
	}
	result := shape.result
	if result == nil {
		result = u.Fresh()
	}

	params := make([]types.Type, arity)
	for i := range params {
		params[i] = operand
	}
	return &types.Function{Params: params, Return: result}
}
