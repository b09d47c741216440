package main

import (
	"context"
	"fmt"
	"log"
	"os"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Manual smoke client for a locally running server. Each check is independent
// and talks to http://localhost:8080 unless VACANCYHUB_URL overrides it.
func main() {
	ctx := context.Background()

	endpoint := os.Getenv("VACANCYHUB_URL")
	if endpoint == "" {
		endpoint = "http://localhost:8080/mcp/stream"
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "vacancyhub-test-client",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: endpoint,
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = session.Close() }()

	log.Printf("Connected to server (session ID: %s)\n", session.ID())

	testListTools(ctx, session)
	testSearchVacancies(ctx, session)
	testAnalytics(ctx, session)
	testClearCache(ctx, session)

	fmt.Println("\nAll tests completed")
}

func testListTools(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: list tools")

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		log.Printf("list tools failed: %v", err)
		return
	}

	for _, tool := range res.Tools {
		fmt.Printf("  %s: %s\n", tool.Name, tool.Description)
	}
}

func testSearchVacancies(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: search_vacancies")

	params := &mcp.CallToolParams{
		Name: "search_vacancies",
		Arguments: map[string]any{
			"query":   "golang developer",
			"sources": []string{"hh"},
		},
	}

	result, err := session.CallTool(ctx, params)
	if err != nil {
		log.Printf("search_vacancies failed: %v", err)
		return
	}

	printResult(result)
	fmt.Println("search_vacancies passed")

	// Repeating the same query should be answered from cache; eyeball the
	// server logs for the absence of upstream calls.
	if _, err := session.CallTool(ctx, params); err != nil {
		log.Printf("search_vacancies (repeat) failed: %v", err)
		return
	}
	fmt.Println("search_vacancies repeat passed")
}

func testAnalytics(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: vacancy_analytics")

	for _, report := range []string{"employers", "average_salary", "higher_salary"} {
		params := &mcp.CallToolParams{
			Name: "vacancy_analytics",
			Arguments: map[string]any{
				"report": report,
			},
		}

		result, err := session.CallTool(ctx, params)
		if err != nil {
			log.Printf("vacancy_analytics (%s) failed: %v", report, err)
			continue
		}
		fmt.Printf("\n  report %s:\n", report)
		printResult(result)
	}

	params := &mcp.CallToolParams{
		Name: "vacancy_analytics",
		Arguments: map[string]any{
			"report":  "keyword",
			"keyword": "golang",
		},
	}
	result, err := session.CallTool(ctx, params)
	if err != nil {
		log.Printf("vacancy_analytics (keyword) failed: %v", err)
		return
	}
	printResult(result)
	fmt.Println("vacancy_analytics passed")
}

func testClearCache(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: clear_cache")

	params := &mcp.CallToolParams{
		Name:      "clear_cache",
		Arguments: map[string]any{},
	}

	result, err := session.CallTool(ctx, params)
	if err != nil {
		log.Printf("clear_cache failed: %v", err)
		return
	}

	printResult(result)
	fmt.Println("clear_cache passed")
}

func printResult(res *mcp.CallToolResult) {
	for _, c := range res.Content {
		if txt, ok := c.(*mcp.TextContent); ok {
			fmt.Println(txt.Text)
		}
	}
}
