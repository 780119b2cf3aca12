package contractclient

import (
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

func callMsg(from *common.Address, to common.Address, input []byte) ethereum.CallMsg {
	msg := ethereum.CallMsg{To: &to, Data: input}
	if from != nil {
		msg.From = *from
	}
	return msg
}
