package solana

import (
	"context"
	"encoding/binary"
	"io"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/sweeper/internal/types"
)

type fakeRPC struct {
	mu sync.Mutex

	balances   map[solana.PublicKey]uint64
	accounts   map[solana.PublicKey]*rpc.Account
	rentExempt uint64
	blockhash  solana.Hash

	balanceErr error
	sendErr    error
	sent       []*solana.Transaction

	statuses    []*rpc.SignatureStatusesResult
	statusCalls int
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		balances:   map[solana.PublicKey]uint64{},
		accounts:   map[solana.PublicKey]*rpc.Account{},
		rentExempt: 890_880,
		blockhash:  solana.Hash{1, 2, 3},
	}
}

func (f *fakeRPC) GetVersion(context.Context) (*rpc.GetVersionResult, error) {
	return &rpc.GetVersionResult{}, nil
}

func (f *fakeRPC) GetBalance(_ context.Context, account solana.PublicKey, _ rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return &rpc.GetBalanceResult{Value: f.balances[account]}, nil
}

func (f *fakeRPC) GetAccountInfo(_ context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[account]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{Value: acc}, nil
}

func (f *fakeRPC) GetLatestBlockhash(context.Context, rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: f.blockhash, LastValidBlockHeight: 100},
	}, nil
}

func (f *fakeRPC) GetMinimumBalanceForRentExemption(context.Context, uint64, rpc.CommitmentType) (uint64, error) {
	return f.rentExempt, nil
}

func (f *fakeRPC) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, _ rpc.TransactionOpts) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sent = append(f.sent, tx)
	return tx.Signatures[0], nil
}

func (f *fakeRPC) GetSignatureStatuses(context.Context, bool, ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.statusCalls
	f.statusCalls++
	if i >= len(f.statuses) {
		return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{nil}}, nil
	}
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{f.statuses[i]}}, nil
}

func (f *fakeRPC) addAccount(key, owner solana.PublicKey) {
	f.accounts[key] = &rpc.Account{Owner: owner, Lamports: 2_039_280, Data: rpc.DataBytesOrJSONFromBytes(nil)}
}

// addMint registers a mint account using the 82-byte SPL mint layout with
// both authorities set.
func (f *fakeRPC) addMint(mint, tokenProgram solana.PublicKey, decimals uint8) {
	data := make([]byte, 82)
	binary.LittleEndian.PutUint32(data[0:], 1)
	copy(data[4:36], solana.SystemProgramID[:])
	binary.LittleEndian.PutUint64(data[36:], 1_000_000_000)
	data[44] = decimals
	data[45] = 1
	binary.LittleEndian.PutUint32(data[46:], 1)
	copy(data[50:82], solana.SystemProgramID[:])

	f.accounts[mint] = &rpc.Account{Owner: tokenProgram, Data: rpc.DataBytesOrJSONFromBytes(data)}
}

type testWallet struct {
	key    solana.PrivateKey
	reject bool
}

func newTestWallet() *testWallet {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		panic(err)
	}
	return &testWallet{key: key}
}

func (w *testWallet) PublicKey() solana.PublicKey {
	return w.key.PublicKey()
}

func (w *testWallet) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	if w.reject {
		return types.ErrUserRejected
	}
	_, err := tx.Sign(func(k solana.PublicKey) *solana.PrivateKey {
		if k.Equals(w.key.PublicKey()) {
			return &w.key
		}
		return nil
	})
	return err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func programAt(tx *solana.Transaction, i int) solana.PublicKey {
	return tx.Message.AccountKeys[tx.Message.Instructions[i].ProgramIDIndex]
}

func accountAt(tx *solana.Transaction, inst, acc int) solana.PublicKey {
	return tx.Message.AccountKeys[tx.Message.Instructions[inst].Accounts[acc]]
}
