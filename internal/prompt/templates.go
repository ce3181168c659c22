package prompt

import (
	"auticonnect/internal/logger"
	"auticonnect/internal/model"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// BaseKey names the mandatory persona template
const BaseKey = "system_base"

// TemplateSet maps template names to template text. It is immutable after Load.
type TemplateSet map[string]string

// Base returns the persona template
func (t TemplateSet) Base() string {
	return t[BaseKey]
}

// For returns the scenario template, or "" when the set has no entry for it
func (t TemplateSet) For(kind model.ScenarioKind) string {
	return t[string(kind)]
}

// DefaultTemplates returns a fresh copy of the built-in template set
func DefaultTemplates() TemplateSet {
	return TemplateSet{
		BaseKey: "Você é um assistente especializado em mediar conversas entre pessoas autistas. " +
			"Seu objetivo é facilitar a comunicação, garantir que todos se sintam incluídos e " +
			"oferecer suporte quando necessário. Você deve ser claro, direto, paciente e evitar " +
			"linguagem ambígua ou figurada. Mantenha um tom calmo e previsível.",
		string(model.ScenarioGroupFacilitation): "Observe a conversa do grupo e intervenha quando: " +
			"1. Houver silêncio prolongado (mais de 5 minutos) " +
			"2. Alguém parecer estar sendo ignorado " +
			"3. A conversa se tornar muito intensa ou confusa " +
			"4. Um tópico de interesse comum surgir que possa ser explorado " +
			"Suas intervenções devem ser gentis e estruturadas.",
		string(model.ScenarioIndividualSupport): "Esta é uma conversa privada com uma pessoa autista que pode estar " +
			"enfrentando dificuldades na interação em grupo. Ofereça suporte emocional, " +
			"ajude na regulação e forneça estratégias para lidar com a situação. " +
			"Pergunte se a pessoa gostaria de retornar ao grupo ou prefere continuar " +
			"a conversa individual por enquanto.",
		string(model.ScenarioActivityGuidance): "Você está facilitando uma atividade estruturada. Forneça instruções claras, " +
			"gerencie os turnos de participação e mantenha o foco no objetivo. " +
			"Ofereça elogios específicos por contribuições e ajude a resumir os pontos principais.",
		string(model.ScenarioConflictMediation): "Detectou-se um potencial conflito ou mal-entendido. Intervenha de forma neutra, " +
			"ajudando a esclarecer as intenções de cada pessoa. Reformule as mensagens de forma " +
			"mais clara se necessário e sugira formas construtivas de continuar a conversa.",
		string(model.ScenarioProfessionalAlert): "Analise a situação atual e determine se é necessário alertar um profissional AT. " +
			"Considere: nível de angústia, potencial para escalada de conflito, temas sensíveis " +
			"ou perigosos, e pedidos explícitos de ajuda. Atribua um nível de urgência de 0-100.",
	}
}

// Encode serializes a template set in the format implied by the path extension.
func Encode(path string, set TemplateSet) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(map[string]string(set))
	}
	data, err := json.MarshalIndent(map[string]string(set), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func decode(path string, data []byte) (TemplateSet, error) {
	var raw map[string]string
	var err error
	if isYAML(path) {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, err
	}
	return TemplateSet(raw), nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads the template set at path. A missing file is replaced by the defaults, which are written back
// to path. A malformed file falls back to the defaults and is left untouched.
func Load(path string, log *logger.Logger) (TemplateSet, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		set := DefaultTemplates()
		if err := Save(path, set); err != nil {
			return nil, err
		}
		log.Info("prompt templates not found, wrote defaults", "path", path)
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}

	set, err := decode(path, data)
	if err != nil || set == nil {
		log.Error("prompt templates unreadable, using defaults", "path", path, "error", err)
		return DefaultTemplates(), nil
	}
	if strings.TrimSpace(set.Base()) == "" {
		log.Warn("prompt templates missing base persona, using built-in", "path", path)
		set[BaseKey] = DefaultTemplates().Base()
	}
	return set, nil
}

// Save writes the template set to path, creating parent directories.
func Save(path string, set TemplateSet) error {
	data, err := Encode(path, set)
	if err != nil {
		return fmt.Errorf("encode templates: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create template dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write templates: %w", err)
	}
	return nil
}
