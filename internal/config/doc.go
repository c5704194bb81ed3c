// Package config provides configuration parsing for rebind projects.
//
// The configuration is stored in rebind.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "checkout-demo",
//	  "serve": {
//	    "port": 8080,
//	    "host": "localhost",
//	    "scenario": "scenario.yaml",
//	    "journal": "hub-journal.jsonl",
//	    "metrics": true
//	  },
//	  "tail": {
//	    "url": "ws://localhost:8080/ws",
//	    "channels": ["price", "qty"],
//	    "window": "150ms",
//	    "trigger": "if-input-changed",
//	    "journal": "tail-journal.jsonl"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Address())
package config
