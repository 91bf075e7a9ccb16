package core

import (
	"fmt"

	"github.com/sirupsen/logrus"
	wasmer "github.com/wasmerio/wasmer-go/wasmer"
)

var guestLog = logrus.WithField("component", "guest_runtime")

// GuestRuntime hosts validated package bytecode inside a wasmer-go sandbox
// and wires the named host-call table described in spec §6.2. cmd/enginectl
// constructs one GuestRuntime per frame invocation, and each frame's guest
// module instance is created fresh from the frame's package code so that
// guest-global state never leaks between frames.
type GuestRuntime struct {
	engine *wasmer.Engine
	store  *wasmer.Store
	dispatcher *HostDispatcher
}

// NewGuestRuntime constructs a runtime backed by wasmer-go's default
// (Cranelift) compiler, dispatching host calls through dispatcher.
func NewGuestRuntime(dispatcher *HostDispatcher) *GuestRuntime {
	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	return &GuestRuntime{engine: engine, store: store, dispatcher: dispatcher}
}

// exportName is the blueprint entry-point naming convention: a published
// package exports one function per blueprint named "{blueprint}_main" that
// receives an encoded (function_or_method_name, ScryptoValue args) request
// and returns an encoded (ScryptoValue result) response through the shared
// linear-memory request/response buffer (spec §6 "guest export
// convention").
func exportName(blueprintName string) string {
	return blueprintName + "_main"
}

// Invoke instantiates code fresh, writes args into guest memory, calls the
// blueprint's main export, and decodes its return value. The frame
// parameter is threaded through so host-call trampolines registered on
// dispatcher can resolve which frame's buckets/proofs/auth-zone/objects a
// given call number operates on.
func (g *GuestRuntime) Invoke(frame *Frame, code []byte, blueprintName, entryPoint string, args ScryptoValue) (ScryptoValue, error) {
	module, err := wasmer.NewModule(g.store, code)
	if err != nil {
		return ScryptoValue{}, fmt.Errorf("compile guest module: %w", &WasmValidationError{Kind: err.Error()})
	}

	importObject := wasmer.NewImportObject()
	g.dispatcher.Register(g.store, importObject, frame)

	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		return ScryptoValue{}, fmt.Errorf("instantiate guest module: %w", ErrInvokeError)
	}

	memory, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return ScryptoValue{}, fmt.Errorf("guest module exports no linear memory: %w", ErrMemoryAccessError)
	}

	// The dispatcher's richer host calls (component/vault/lazy-map/resource
	// state transfer) read and write guest memory directly, so they can only
	// be bound once the instance exists -- Register above only installs the
	// import functions, before the module has its own memory to hand back.
	g.dispatcher.bindGuest(instance, memory)

	mainFn, err := instance.Exports.GetFunction(exportName(blueprintName))
	if err != nil {
		return ScryptoValue{}, fmt.Errorf("guest module exports no %s: %w", exportName(blueprintName), ErrInvokeError)
	}

	reqBytes, err := EncodeScryptoValue(map[string]interface{}{
		"entry_point": entryPoint,
		"args":        args.Bytes,
	})
	if err != nil {
		return ScryptoValue{}, err
	}

	ptr, err := writeToGuestMemory(instance, memory, reqBytes.Bytes)
	if err != nil {
		return ScryptoValue{}, err
	}

	resultRaw, err := mainFn(ptr, len(reqBytes.Bytes))
	if err != nil {
		guestLog.WithError(err).WithField("blueprint", blueprintName).Warn("guest trap")
		return ScryptoValue{}, fmt.Errorf("%s: %w", blueprintName, ErrInvokeError)
	}

	packed, ok := resultRaw.(int64)
	if !ok {
		return ScryptoValue{}, ErrInvalidReturnType
	}
	if packed == 0 {
		return ScryptoValue{}, ErrNoReturnData
	}
	outPtr, outLen := unpackPointerLen(packed)
	data, err := readFromGuestMemory(memory, outPtr, outLen)
	if err != nil {
		return ScryptoValue{}, err
	}
	return ScryptoValue{Bytes: data}, nil
}

// writeToGuestMemory calls the module's exported allocator ("scrypto_alloc",
// matching the original engine's allocator-export convention) and copies
// data into the returned region, returning the pointer.
func writeToGuestMemory(instance *wasmer.Instance, memory *wasmer.Memory, data []byte) (int32, error) {
	alloc, err := instance.Exports.GetFunction("scrypto_alloc")
	if err != nil {
		return 0, fmt.Errorf("guest module exports no scrypto_alloc: %w", ErrMemoryAllocError)
	}
	ptrRaw, err := alloc(len(data))
	if err != nil {
		return 0, fmt.Errorf("scrypto_alloc: %w", ErrMemoryAllocError)
	}
	ptr, ok := ptrRaw.(int32)
	if !ok {
		return 0, ErrMemoryAllocError
	}
	view := memory.Data()
	if int(ptr)+len(data) > len(view) {
		return 0, ErrMemoryAccessError
	}
	copy(view[ptr:], data)
	return ptr, nil
}

func readFromGuestMemory(memory *wasmer.Memory, ptr, length int32) ([]byte, error) {
	view := memory.Data()
	if ptr < 0 || length < 0 || int(ptr)+int(length) > len(view) {
		return nil, ErrMemoryAccessError
	}
	out := make([]byte, length)
	copy(out, view[ptr:int(ptr)+int(length)])
	return out, nil
}

// packPointerLen/unpackPointerLen pack a (pointer, length) pair into a
// single int64 guest return value, the convention guest exports use to
// hand back variable-length results through a single scalar, mirroring the
// original engine's ptr<<32|len wasm-return-value convention.
func packPointerLen(ptr, length int32) int64 {
	return int64(uint64(uint32(ptr))<<32 | uint64(uint32(length)))
}

func unpackPointerLen(packed int64) (int32, int32) {
	u := uint64(packed)
	return int32(u >> 32), int32(u & 0xffffffff)
}
