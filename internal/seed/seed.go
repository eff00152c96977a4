// Package seed holds the built-in sample corpus used to bootstrap an empty
// knowledge base.
package seed

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retrieval"
)

// Documents is the built-in sample corpus. The content mentions FastAPI
// because the corpus describes well known tools, not this service.
var Documents = []models.DocumentInput{
	{
		Content:  "FastAPI is a modern, fast web framework for building APIs with Python based on standard Python type hints. It was created by Sebastián Ramírez and is designed to be easy to use and highly performant. FastAPI is built on top of Starlette and Pydantic, providing automatic API documentation, data validation, and serialization.",
		Metadata: map[string]interface{}{"category": "technology", "topic": "fastapi", "source": "documentation"},
	},
	{
		Content:  "Retrieval-Augmented Generation (RAG) is a technique that combines the power of large language models with external knowledge retrieval. It works by first retrieving relevant documents or information from a knowledge base, then using that context to generate more accurate and informed responses. This approach helps reduce hallucinations and provides more factual answers.",
		Metadata: map[string]interface{}{"category": "ai", "topic": "rag", "source": "research"},
	},
	{
		Content:  "Milvus is an open-source vector database designed for AI applications. It provides high-performance similarity search and analytics for unstructured data. Milvus supports various distance metrics and index types, making it ideal for applications like recommendation systems, image search, and natural language processing tasks.",
		Metadata: map[string]interface{}{"category": "technology", "topic": "vector_database", "source": "documentation"},
	},
	{
		Content:  "Python is a high-level, interpreted programming language known for its simplicity and readability. It was created by Guido van Rossum and first released in 1991. Python supports multiple programming paradigms including procedural, object-oriented, and functional programming. It has a large standard library and extensive ecosystem of third-party packages.",
		Metadata: map[string]interface{}{"category": "programming", "topic": "python", "source": "documentation"},
	},
	{
		Content:  "Machine learning is a subset of artificial intelligence that enables computers to learn and make decisions without being explicitly programmed. It uses algorithms and statistical models to analyze and draw inferences from patterns in data. Common applications include image recognition, natural language processing, recommendation systems, and predictive analytics.",
		Metadata: map[string]interface{}{"category": "ai", "topic": "machine_learning", "source": "educational"},
	},
	{
		Content:  "Docker is a platform for developing, shipping, and running applications in containers. Containers are lightweight, portable, and self-sufficient units that can run anywhere Docker is installed. Docker provides isolation, consistency, and efficiency for application deployment and development workflows.",
		Metadata: map[string]interface{}{"category": "technology", "topic": "docker", "source": "documentation"},
	},
	{
		Content:  "REST (Representational State Transfer) is an architectural style for designing networked applications. It uses HTTP methods (GET, POST, PUT, DELETE) to perform operations on resources. REST APIs are stateless, cacheable, and follow a client-server architecture. They are widely used for web services and mobile applications.",
		Metadata: map[string]interface{}{"category": "web", "topic": "rest_api", "source": "educational"},
	},
	{
		Content:  "Natural Language Processing (NLP) is a branch of artificial intelligence that helps computers understand, interpret, and manipulate human language. It combines computational linguistics with machine learning and deep learning. Applications include chatbots, sentiment analysis, language translation, and text summarization.",
		Metadata: map[string]interface{}{"category": "ai", "topic": "nlp", "source": "educational"},
	},
}

// Seed adds the sample corpus through svc and returns how many documents
// were stored. An error is returned only when none could be added.
func Seed(ctx context.Context, svc *retrieval.Service) (int, error) {
	added := 0
	for _, doc := range Documents {
		if svc.AddDocument(ctx, doc.Content, doc.Metadata) {
			added++
		}
	}
	if added == 0 {
		return 0, fmt.Errorf("seed: no documents added (store or embedder unavailable)")
	}
	return added, nil
}
