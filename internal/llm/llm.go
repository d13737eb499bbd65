package llm

import llmclient "crewbuilder/internal/llm/client"

type LLMClient = llmclient.LLMClient
