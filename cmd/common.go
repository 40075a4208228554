/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/valpere/codextran/internal/translator"
)

// buildService constructs the single translation backend for a run.
func buildService(name, credentials, ollamaBaseURL, ollamaModel, mymemoryEmailAddr string) (translator.Service, error) {
	switch name {
	case "google":
		return translator.NewGoogleService(credentials), nil
	case "ollama":
		return translator.NewOllamaService(ollamaBaseURL, ollamaModel), nil
	case "mymemory":
		return translator.NewMyMemoryService(mymemoryEmailAddr), nil
	default:
		return nil, fmt.Errorf("unknown service: %s (want google, ollama or mymemory)", name)
	}
}
