package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt("compare_products",
		mcp.WithPromptDescription("Compare two ETIM product classes and highlight their differences"),
		mcp.WithArgument("class1", mcp.RequiredArgument(), mcp.ArgumentDescription("First ETIM class code")),
		mcp.WithArgument("class2", mcp.RequiredArgument(), mcp.ArgumentDescription("Second ETIM class code")),
		mcp.WithArgument("language", mcp.ArgumentDescription("Language code (default EN)")),
	), func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		class1 := req.Params.Arguments["class1"]
		class2 := req.Params.Arguments["class2"]
		language := promptLanguage(req)

		text := fmt.Sprintf(`Please compare these two ETIM product classes and highlight their differences:

Class 1: %s
Class 2: %s
Language: %s

Use the compare_classes tool to get the data, then provide a clear comparison focusing on:
1. Product descriptions
2. Key feature differences
3. Use cases for each
4. Recommendations for which to choose based on requirements`, class1, class2, language)

		return mcp.NewGetPromptResult("Compare two product classes", []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		}), nil
	})

	s.AddPrompt(mcp.NewPrompt("find_product_by_specs",
		mcp.WithPromptDescription("Find ETIM product classes matching a set of requirements"),
		mcp.WithArgument("requirements", mcp.RequiredArgument(), mcp.ArgumentDescription("Free-text product requirements")),
		mcp.WithArgument("language", mcp.ArgumentDescription("Language code (default EN)")),
	), func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		requirements := req.Params.Arguments["requirements"]
		language := promptLanguage(req)

		text := fmt.Sprintf(`I need to find ETIM product classes that match these requirements:

%s

Language: %s

Please:
1. Use search_classes to find relevant product categories
2. Get details on the most promising matches
3. Explain which products best fit the requirements and why`, requirements, language)

		return mcp.NewGetPromptResult("Find products by specification", []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		}), nil
	})

	s.AddPrompt(mcp.NewPrompt("explain_classification",
		mcp.WithPromptDescription("Explain an ETIM classification in detail"),
		mcp.WithArgument("class_code", mcp.RequiredArgument(), mcp.ArgumentDescription("ETIM class code to explain")),
		mcp.WithArgument("language", mcp.ArgumentDescription("Language code (default EN)")),
	), func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		classCode := req.Params.Arguments["class_code"]
		language := promptLanguage(req)

		text := fmt.Sprintf(`Please explain the ETIM classification %s in detail.

Language: %s

Include:
1. What type of product this represents
2. Key technical features and characteristics
3. Typical use cases
4. Related product classifications

Use get_class_details with include_features=true to get the full information.`, classCode, language)

		return mcp.NewGetPromptResult("Explain a classification", []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		}), nil
	})
}

func promptLanguage(req mcp.GetPromptRequest) string {
	if language := req.Params.Arguments["language"]; language != "" {
		return language
	}
	return "EN"
}
