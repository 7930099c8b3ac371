package service

import "strings"

// predefinedResponses answers the court's most common questions without
// touching the upstream assistant
var predefinedResponses = map[string]string{
	"horario":     "A 2ª Vara Cível de Cariacica funciona das 12h às 18h, de segunda a sexta-feira.",
	"endereco":    "A 2ª Vara Cível de Cariacica está localizada na Rua Expedito Garcia, s/n, Centro, Cariacica - ES.",
	"telefone":    "Para contato, ligue: (27) 3246-8200 ou envie um email para 2varacivel.cariacica@tjes.jus.br",
	"processo":    "Para consultar seu processo, você precisa do número no formato CNJ. Acesse a consulta processual em nosso site ou no portal do TJES.",
	"audiencia":   "As audiências podem ser realizadas presencialmente ou virtualmente. Você receberá as instruções por email ou pode consultar no portal do TJES.",
	"agendamento": "Para agendar atendimento, acesse nossa página de agendamento ou ligue para (27) 3246-8200.",
	"documentos":  "Para solicitar certidões e outros documentos, acesse nossa seção de serviços ou compareça presencialmente com os documentos necessários.",
	"mediacao":    "Oferecemos serviços de mediação e conciliação. Entre em contato para mais informações sobre agendamento.",
	"cumprimento": "Para questões sobre cumprimento de sentença, consulte o andamento do seu processo ou entre em contato conosco.",
	"execucao":    "Para informações sobre execução de título, acesse nossos serviços online ou consulte presencialmente.",
}

// topicOrder fixes the priority of direct topic matches; earlier topics
// win when a message mentions more than one
var topicOrder = []string{
	"horario",
	"endereco",
	"telefone",
	"processo",
	"audiencia",
	"agendamento",
	"documentos",
	"mediacao",
	"cumprimento",
	"execucao",
}

// topicKeywords widens matching beyond the literal topic names
var topicKeywords = []struct {
	topic string
	words []string
}{
	{"horario", []string{"horario", "horário", "hora", "funcionamento", "aberto"}},
	{"endereco", []string{"endereco", "endereço", "localização", "localizacao", "onde", "local"}},
	{"telefone", []string{"telefone", "contato", "falar", "ligar"}},
	{"processo", []string{"processo", "consulta", "numero", "número", "cnj"}},
	{"audiencia", []string{"audiencia", "audiência", "zoom", "virtual"}},
	{"agendamento", []string{"agendamento", "agendar", "marcar"}},
	{"documentos", []string{"documento", "certidao", "certidão", "papel"}},
	{"mediacao", []string{"mediacao", "mediação", "conciliacao", "conciliação"}},
}

const defaultResponse = `Olá! Sou o assistente virtual da 2ª Vara Cível de Cariacica.
Posso ajudar com informações sobre:
• Horário de funcionamento
• Localização e contato
• Consulta processual
• Agendamento de atendimento
• Audiências
• Documentos e certidões

Como posso ajudá-lo hoje?`

// knowledgeBaseAnswer matches a message against the predefined topics.
// Direct topic mentions win; keyword synonyms follow. Empty string means
// no match.
func knowledgeBaseAnswer(message string) string {
	normalized := strings.ToLower(strings.TrimSpace(message))

	for _, topic := range topicOrder {
		if strings.Contains(normalized, topic) {
			return predefinedResponses[topic]
		}
	}

	for _, entry := range topicKeywords {
		for _, word := range entry.words {
			if strings.Contains(normalized, word) {
				return predefinedResponses[entry.topic]
			}
		}
	}

	return ""
}
