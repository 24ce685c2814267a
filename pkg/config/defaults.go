package config

// DefaultFilterConfig returns the spec's §4.4 defaults for the P2 filter.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		ActorAllowList:     []string{},
		StopList:           []string{},
		KeywordHeuristics:  []string{},
		GraphMinShared:     2,
		GraphPromoteShared: 3,
		GraphWindow:        "48h",
		GraphNeighborCap:   3,
	}
}

// DefaultConnectivityConfig returns the spec's §4.3 defaults.
func DefaultConnectivityConfig() *ConnectivityConfig {
	return &ConnectivityConfig{
		MinSharedEntities:  2,
		PairCap:            50000,
		WriteBatchSize:     1000,
		CompositeThreshold: 0.3,
		JaccardWeight:      0.5,
		ActorWeight:        0.2,
	}
}

// DefaultAssemblerConfig returns the spec's §4.5 defaults.
func DefaultAssemblerConfig() *AssemblerConfig {
	return &AssemblerConfig{
		MaxTitles:        0,
		BatchSize:        50,
		Temperature:      0,
		RetryTemperature: 0.1,
		MaxTokens:        2048,
	}
}

// DefaultEnrichmentConfig returns the spec's §4.6 defaults.
func DefaultEnrichmentConfig() *EnrichmentConfig {
	return &EnrichmentConfig{
		DailyCap:               200,
		MaxRecentTitles:        5,
		MacroLinkAutoThreshold: 0.7,
		CentroidCandidateCount: 5,
		MaxTokens:              2048,
		MacroLinkTemperature:   0.2,
		NarrativeTemperature:   0.4,
	}
}

// DefaultNarrativeConfig returns the spec's §4.8 defaults.
func DefaultNarrativeConfig() *NarrativeConfig {
	return &NarrativeConfig{
		CTMSampleCap:    200,
		EpicSampleCap:   150,
		EventSampleCap:  1 << 30, // events use all member titles (no cap named in §4.8)
		Pass2BatchSize:  60,
		RefreshGrowth:   20,
		RefreshMinHours: 24,
		MinCTMTitles:    20,
		MinEventTitles:  5,
	}
}

// DefaultRunnerConfig returns the spec's §4.9/§5 defaults.
func DefaultRunnerConfig() *RunnerConfig {
	return &RunnerConfig{
		LLMSemaphore:   3,
		StagePool:      8,
		CheckpointDir:  "logs/checkpoints",
		MaxRetries:     5,
		BackoffInitial: "500ms",
		BackoffMax:     "30s",
	}
}

// DefaultLLMConfig returns the spec's §5 LLM-call defaults (120s timeout).
func DefaultLLMConfig() *LLMYAMLConfig {
	return &LLMYAMLConfig{
		TimeoutSec: 120,
		MaxRetries: 1, // HTTP-level retries on 5xx/network errors (llmclient's RetryMax)
	}
}

// DefaultAPIConfig returns the §6 on-demand HTTP interface defaults.
func DefaultAPIConfig() *APIConfig {
	return &APIConfig{
		ListenAddr:     ":8090",
		BearerTokenEnv: "EXTRACT_API_TOKEN",
	}
}
