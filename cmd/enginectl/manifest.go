package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vaultscript/core"
)

// manifestInstruction is the JSON-friendly wire shape of a core.Instruction:
// addresses and ids are hex strings, amounts are decimal strings, since
// core's own types (fixed-size byte arrays, big.Int-backed Amount) don't
// round-trip through encoding/json directly.
type manifestInstruction struct {
	Kind             string                         `json:"kind"`
	PackageAddress   string                         `json:"package_address,omitempty"`
	ComponentAddress string                         `json:"component_address,omitempty"`
	BlueprintName    string                         `json:"blueprint_name,omitempty"`
	Name             string                         `json:"name,omitempty"`
	Args             string                         `json:"args,omitempty"`
	ResourceAddress  string                         `json:"resource_address,omitempty"`
	NonFungible      bool                           `json:"non_fungible,omitempty"`
	Amount           string                         `json:"amount,omitempty"`
	NonFungibleIds   []string                       `json:"non_fungible_ids,omitempty"`
	Bucket           uint32                         `json:"bucket,omitempty"`
	Proof            uint32                         `json:"proof,omitempty"`
	Code             string                         `json:"code,omitempty"`
	Blueprints       map[string]manifestBlueprint   `json:"blueprints,omitempty"`
}

// manifestAbi/manifestBlueprint are the JSON-friendly wire shape of
// core.Abi/core.Blueprint for a publish_package instruction. Access rules
// are not expressible through a manifest; a package published this way
// carries no AccessRules, same as the publish subcommand's own smoke-test
// path.
type manifestAbi struct {
	ArgCount int `json:"arg_count"`
}

type manifestBlueprint struct {
	Functions map[string]manifestAbi `json:"functions,omitempty"`
	Methods   map[string]manifestAbi `json:"methods,omitempty"`
}

var manifestKinds = map[string]core.InstructionKind{
	"call_function":                        core.InstructionCallFunction,
	"call_method":                          core.InstructionCallMethod,
	"call_method_with_all_resources":       core.InstructionCallMethodWithAllResources,
	"take_from_worktop":                    core.InstructionTakeFromWorktop,
	"take_all_from_worktop":                core.InstructionTakeAllFromWorktop,
	"take_non_fungibles_from_worktop":       core.InstructionTakeNonFungiblesFromWorktop,
	"return_to_worktop":                    core.InstructionReturnToWorktop,
	"assert_worktop_contains":              core.InstructionAssertWorktopContains,
	"assert_worktop_contains_by_amount":    core.InstructionAssertWorktopContainsByAmount,
	"assert_worktop_contains_by_ids":       core.InstructionAssertWorktopContainsByIds,
	"create_proof_from_auth_zone":          core.InstructionCreateProofFromAuthZone,
	"create_proof_from_auth_zone_by_amount": core.InstructionCreateProofFromAuthZoneByAmount,
	"create_proof_from_auth_zone_by_ids":    core.InstructionCreateProofFromAuthZoneByIds,
	"create_proof_from_bucket":             core.InstructionCreateProofFromBucket,
	"clone_proof":                          core.InstructionCloneProof,
	"drop_proof":                           core.InstructionDropProof,
	"drop_all_proofs":                      core.InstructionDropAllProofs,
	"push_to_auth_zone":                    core.InstructionPushToAuthZone,
	"pop_from_auth_zone":                   core.InstructionPopFromAuthZone,
	"publish_package":                      core.InstructionPublishPackage,
}

func decodeManifest(raw []byte) ([]core.Instruction, error) {
	var wire []manifestInstruction
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	out := make([]core.Instruction, 0, len(wire))
	for i, w := range wire {
		kind, ok := manifestKinds[w.Kind]
		if !ok {
			return nil, fmt.Errorf("instruction %d: unknown kind %q", i, w.Kind)
		}
		instr := core.Instruction{Kind: kind, BlueprintName: w.BlueprintName, Name: w.Name}
		if w.PackageAddress != "" {
			addr, err := parsePackageAddress(w.PackageAddress)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
			instr.PackageAddress = addr
		}
		if w.ComponentAddress != "" {
			addr, err := parseComponentAddress(w.ComponentAddress)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
			instr.ComponentAddress = addr
		}
		if w.ResourceAddress != "" {
			b, err := hex.DecodeString(w.ResourceAddress)
			if err != nil || len(b) != len(instr.ResourceAddress) {
				return nil, fmt.Errorf("instruction %d: invalid resource address", i)
			}
			copy(instr.ResourceAddress[:], b)
		}
		if w.Args != "" {
			argBytes, err := hex.DecodeString(w.Args)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: invalid args hex", i)
			}
			instr.Args = core.ScryptoValue{Bytes: argBytes}
		}
		if w.Amount != "" {
			amt, err := core.ParseAmount(w.Amount)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
			instr.Amount = amt
		}
		if w.NonFungible {
			instr.ResourceType = core.ResourceTypeNonFungible
		}
		for _, idHex := range w.NonFungibleIds {
			id, err := hex.DecodeString(idHex)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: invalid non-fungible id", i)
			}
			instr.NonFungibleIds = append(instr.NonFungibleIds, core.NonFungibleId(id))
		}
		if w.Code != "" {
			code, err := hex.DecodeString(w.Code)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: invalid code hex", i)
			}
			instr.Code = code
		}
		if len(w.Blueprints) > 0 {
			instr.Blueprints = make(map[string]*core.Blueprint, len(w.Blueprints))
			for name, bp := range w.Blueprints {
				instr.Blueprints[name] = &core.Blueprint{
					Name:      name,
					Functions: convertAbis(bp.Functions),
					Methods:   convertAbis(bp.Methods),
				}
			}
		}
		instr.Bucket = core.BucketId(w.Bucket)
		instr.Proof = core.ProofId(w.Proof)
		out = append(out, instr)
	}
	return out, nil
}

func convertAbis(in map[string]manifestAbi) map[string]core.Abi {
	out := make(map[string]core.Abi, len(in))
	for name, abi := range in {
		out[name] = core.Abi{ArgCount: abi.ArgCount}
	}
	return out
}

func newRunManifestCmd() *cobra.Command {
	var manifestPath string
	cmd := &cobra.Command{
		Use:   "run-manifest",
		Short: "execute a JSON transaction manifest as a single atomic transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(manifestPath)
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}
			instructions, err := decodeManifest(raw)
			if err != nil {
				return err
			}

			process, _, _, err := bootstrap(manifestPath)
			if err != nil {
				return err
			}

			result := core.RunManifest(process, instructions)
			if result.Err != nil {
				return result.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "committed: %d outputs\n", len(result.Outputs))
			return nil
		},
	}
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "path to JSON manifest file")
	cmd.MarkFlagRequired("manifest")
	return cmd
}
