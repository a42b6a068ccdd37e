// Package bookrag embeds the bookrag ingestion and retrieval pipeline in a Go
// program without running the HTTP service.
//
// Entries live in process memory for the lifetime of the Client. An optional
// Valkey or Redis instance caches embeddings across restarts.
//
//	client, _ := bookrag.New(ctx,
//	    bookrag.WithOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), "", "text-embedding-3-small"),
//	    bookrag.WithOpenAIGenerator(os.Getenv("OPENAI_API_KEY"), "", "gpt-4o-mini"),
//	)
//	defer client.Close()
//
//	_, _ = client.IngestFile(ctx, "book.pdf")
//	passages, _ := client.Retrieve(ctx, "what is a monad?")
//	answer, _ := client.Generate(ctx, "what is a monad?")
package bookrag
