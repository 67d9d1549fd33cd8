package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	participantFlag = &cli.StringFlag{
		Name:     "participant",
		Usage:    "the address entering the raffle",
		Required: true,
	}
	amountFlag = &cli.Uint64Flag{
		Name:     "amount",
		Usage:    "the amount in sats sent with the entry",
		Required: true,
	}
	requestIdFlag = &cli.StringFlag{
		Name:     "request-id",
		Usage:    "the id of the randomness request to fulfill",
		Required: true,
	}
	wordsFlag = &cli.StringSliceFlag{
		Name:     "word",
		Usage:    "a random word, decimal or 0x-prefixed hex (repeatable)",
		Required: true,
	}
	proofRequestIdFlag = &cli.StringFlag{
		Name:     "request-id",
		Usage:    "the id of the randomness request to prove",
		Required: true,
	}
	performFlag = &cli.BoolFlag{
		Name:  "perform",
		Usage: "start the draw instead of only checking if it's due",
	}
)

var (
	infoCmd = &cli.Command{
		Name:   "info",
		Usage:  "Get info about the current raffle round",
		Action: infoAction,
	}
	enterCmd = &cli.Command{
		Name:   "enter",
		Usage:  "Enter the current raffle round",
		Action: enterAction,
		Flags:  []cli.Flag{participantFlag, amountFlag},
	}
	upkeepCmd = &cli.Command{
		Name:   "upkeep",
		Usage:  "Check or perform the draw upkeep",
		Action: upkeepAction,
		Flags:  []cli.Flag{performFlag},
	}
	fulfillCmd = &cli.Command{
		Name:   "fulfill",
		Usage:  "Deliver random words for a pending request (external oracle only)",
		Action: fulfillAction,
		Flags:  []cli.Flag{requestIdFlag, wordsFlag},
	}
	payoutsCmd = &cli.Command{
		Name:   "payouts",
		Usage:  "List the payouts not settled yet",
		Action: payoutsAction,
	}
	retryPayoutCmd = &cli.Command{
		Name:   "retry-payout",
		Usage:  "Retry the payout of the round being drawn",
		Action: retryPayoutAction,
	}
	requestsCmd = &cli.Command{
		Name:   "requests",
		Usage:  "List the randomness requests waiting for random words (external oracle only)",
		Action: requestsAction,
	}
	proofCmd = &cli.Command{
		Name:   "proof",
		Usage:  "Get the proof of the random words of a request (vrf oracle only)",
		Action: proofAction,
		Flags:  []cli.Flag{proofRequestIdFlag},
	}
)

func infoAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/info", ctx.String(urlFlagName))
	info, err := get[map[string]any](url, "", "")
	if err != nil {
		return err
	}
	return printJSON(info)
}

func enterAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/enter", ctx.String(urlFlagName))
	body := fmt.Sprintf(
		`{"participant": %q, "amount": %d}`,
		ctx.String("participant"), ctx.Uint64("amount"),
	)
	txid, err := post[string](url, body, "txid", "")
	if err != nil {
		return err
	}

	fmt.Println(txid)
	return nil
}

func upkeepAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/upkeep", ctx.String(urlFlagName))
	if !ctx.Bool("perform") {
		status, err := get[map[string]any](url, "", "")
		if err != nil {
			return err
		}
		return printJSON(status)
	}

	requestId, err := post[string](url, "", "requestId", "")
	if err != nil {
		return err
	}

	fmt.Println(requestId)
	return nil
}

func fulfillAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/oracle/fulfill", ctx.String(urlFlagName))
	buf, err := json.Marshal(map[string]any{
		"requestId":   ctx.String("request-id"),
		"randomWords": ctx.StringSlice("word"),
	})
	if err != nil {
		return err
	}

	if _, err := post[struct{}](url, string(buf), "", ctx.String(tokenFlagName)); err != nil {
		return err
	}

	fmt.Println("request fulfilled")
	return nil
}

func payoutsAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/admin/payouts", ctx.String(urlFlagName))
	payouts, err := get[[]map[string]any](url, "payouts", ctx.String(tokenFlagName))
	if err != nil {
		return err
	}
	return printJSON(payouts)
}

func retryPayoutAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/admin/payouts/retry", ctx.String(urlFlagName))
	txid, err := post[string](url, "", "txid", ctx.String(tokenFlagName))
	if err != nil {
		return err
	}

	fmt.Println(txid)
	return nil
}

func requestsAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/oracle/requests", ctx.String(urlFlagName))
	requests, err := get[[]map[string]any](url, "requests", ctx.String(tokenFlagName))
	if err != nil {
		return err
	}
	return printJSON(requests)
}

func proofAction(ctx *cli.Context) error {
	url := fmt.Sprintf("%s/v1/proofs/%s", ctx.String(urlFlagName), ctx.String("request-id"))
	proof, err := get[map[string]any](url, "", "")
	if err != nil {
		return err
	}
	return printJSON(proof)
}

func post[T any](url, body, key, token string) (result T, err error) {
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Add("Content-Type", "application/json")
	return do[T](req, key, token)
}

func get[T any](url, key, token string) (result T, err error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return
	}
	return do[T](req, key, token)
}

// do sends the request and decodes either the whole body or, if key is set,
// only the given top-level field.
func do[T any](req *http.Request, key, token string) (result T, err error) {
	if len(token) > 0 {
		req.Header.Add("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("request failed (%d): %s", resp.StatusCode, string(buf))
		return
	}
	if len(buf) <= 0 {
		return
	}

	if key == "" {
		err = json.Unmarshal(buf, &result)
		return
	}

	res := make(map[string]T)
	if err = json.Unmarshal(buf, &res); err != nil {
		return
	}
	result = res[key]
	return
}

func printJSON(v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
