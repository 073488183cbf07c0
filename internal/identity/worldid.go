package identity

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// DefaultWorldIDEndpoint is the World ID developer API base URL.
const DefaultWorldIDEndpoint = "https://developer.worldcoin.org"

// WorldIDVerifier verifies proofs against the World ID cloud API.
type WorldIDVerifier struct {
	appID    string
	endpoint string
	client   *http.Client
}

// NewWorldIDVerifier creates a verifier for the given app. An empty endpoint
// uses DefaultWorldIDEndpoint; a nil client gets a 10s timeout.
func NewWorldIDVerifier(appID, endpoint string, client *http.Client) *WorldIDVerifier {
	if endpoint == "" {
		endpoint = DefaultWorldIDEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WorldIDVerifier{
		appID:    appID,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
	}
}

type verifyRequest struct {
	NullifierHash     string `json:"nullifier_hash"`
	MerkleRoot        string `json:"merkle_root"`
	Proof             string `json:"proof"`
	VerificationLevel string `json:"verification_level"`
	Action            string `json:"action"`
	SignalHash        string `json:"signal_hash"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Detail  string `json:"detail"`
}

// Verify posts the proof to /api/v2/verify/{app_id}. A rejected proof is a
// Result with Success false, not an error.
func (v *WorldIDVerifier) Verify(ctx context.Context, participantID, action, signal string, proof Proof) (Result, error) {
	body, err := json.Marshal(verifyRequest{
		NullifierHash:     proof.NullifierHash,
		MerkleRoot:        proof.MerkleRoot,
		Proof:             proof.Proof,
		VerificationLevel: proof.VerificationLevel,
		Action:            action,
		SignalHash:        HashSignal(signal),
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode verify request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v2/verify/%s", v.endpoint, url.PathEscape(v.appID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("world id verify: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read verify response: %w", err)
	}

	var out verifyResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return Result{}, fmt.Errorf("failed to decode verify response (status %d): %w", resp.StatusCode, err)
		}
	}

	switch {
	case resp.StatusCode == http.StatusOK && out.Success:
		slog.Debug("World ID proof accepted", "participant_id", participantID, "action", action)
		return Result{Success: true}, nil
	case resp.StatusCode >= 500:
		return Result{}, fmt.Errorf("world id verify: status %d", resp.StatusCode)
	default:
		detail := out.Detail
		if out.Code != "" {
			detail = out.Code + ": " + detail
		}
		slog.Info("World ID proof rejected",
			"participant_id", participantID,
			"status", resp.StatusCode,
			"detail", detail,
		)
		return Result{Success: false, Detail: detail}, nil
	}
}

// HashSignal maps a signal to the field element the oracle expects:
// keccak256(signal) shifted right by 8 bits, as 0x-prefixed hex.
func HashSignal(signal string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signal))
	sum := h.Sum(nil)

	field := make([]byte, 0, len(sum))
	field = append(field, 0)
	field = append(field, sum[:len(sum)-1]...)
	return "0x" + hex.EncodeToString(field)
}
